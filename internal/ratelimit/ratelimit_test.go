package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CountsWithinWindow(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	for i := int64(1); i <= 3; i++ {
		count, ttl, err := store.Increment(context.Background(), "login:1.2.3.4", 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Equal(t, 15*time.Minute, ttl)
	}

	now = now.Add(10 * time.Minute)
	count, ttl, err := store.Increment(context.Background(), "login:1.2.3.4", 15*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	assert.Equal(t, 5*time.Minute, ttl)

	now = now.Add(6 * time.Minute)
	count, _, err = store.Increment(context.Background(), "login:1.2.3.4", 15*time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemoryStore_Decrement(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	_, _, _ = store.Increment(context.Background(), "k", time.Minute)
	_, _, _ = store.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, store.Decrement(context.Background(), "k"))
	require.NoError(t, store.Decrement(context.Background(), "missing"))

	count, _, err := store.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestMemoryStore_ConcurrentIncrements(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = store.Increment(context.Background(), "k", time.Minute)
		}()
	}
	wg.Wait()

	count, _, err := store.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 51, count)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	_, _, _ = store.Increment(context.Background(), "k", time.Minute)

	now = now.Add(2 * time.Minute)
	store.sweep()
	assert.Empty(t, store.counters)
}

func TestRedisStore_FirstHitSetsExpiry(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectIncr("ratelimit:register:1.2.3.4").SetVal(1)
	mock.ExpectPExpire("ratelimit:register:1.2.3.4", time.Hour).SetVal(true)

	count, ttl, err := store.Increment(context.Background(), "register:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.Equal(t, time.Hour, ttl)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_LaterHitReadsTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectIncr("ratelimit:register:1.2.3.4").SetVal(4)
	mock.ExpectPTTL("ratelimit:register:1.2.3.4").SetVal(20 * time.Minute)

	count, ttl, err := store.Increment(context.Background(), "register:1.2.3.4", time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 4, count)
	assert.Equal(t, 20*time.Minute, ttl)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_RepairsMissingExpiry(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectIncr("ratelimit:k").SetVal(2)
	mock.ExpectPTTL("ratelimit:k").SetVal(-1)
	mock.ExpectPExpire("ratelimit:k", time.Minute).SetVal(true)

	_, ttl, err := store.Increment(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_IncrementError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectIncr("ratelimit:k").SetErr(errors.New("connection refused"))

	_, _, err := store.Increment(context.Background(), "k", time.Minute)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisStore_Decrement(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client)

	mock.ExpectDecr("ratelimit:k").SetVal(0)
	require.NoError(t, store.Decrement(context.Background(), "k"))

	mock.ExpectDecr("ratelimit:gone").SetVal(-1)
	mock.ExpectDel("ratelimit:gone").SetVal(1)
	require.NoError(t, store.Decrement(context.Background(), "gone"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
