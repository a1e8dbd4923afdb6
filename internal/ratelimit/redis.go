package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "ratelimit:"

// RedisStore shares counters between replicas. INCR is atomic on the server,
// the expiry is attached by whichever request opened the window.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	key = keyPrefix + key

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	if count == 1 {
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return count, window, fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
		return count, window, nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return count, window, fmt.Errorf("failed to read ttl of %s: %w", key, err)
	}
	if ttl < 0 {
		// The key lost its expiry, start a fresh window instead of counting forever.
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return count, window, fmt.Errorf("failed to set expiry on %s: %w", key, err)
		}
		ttl = window
	}

	return count, ttl, nil
}

func (s *RedisStore) Decrement(ctx context.Context, key string) error {
	key = keyPrefix + key

	n, err := s.client.Decr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to decrement %s: %w", key, err)
	}
	if n < 0 {
		// The window expired before the decrement, drop the stray counter.
		return s.client.Del(ctx, key).Err()
	}
	return nil
}

// NewRedisClient opens a client and checks connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}
