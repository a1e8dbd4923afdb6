package ratelimit

import (
	"context"
	"sync"
	"time"
)

const cleanupInterval = 5 * time.Minute

type counter struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps counters in process. Limits are per replica.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		counters: make(map[string]*counter),
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go s.cleanup()

	return s
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[key]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(window)}
		s.counters[key] = c
	}
	c.count++

	return c.count, c.resetAt.Sub(now), nil
}

func (s *MemoryStore) Decrement(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[key]; ok && c.count > 0 {
		c.count--
	}
	return nil
}

// cleanup drops expired windows periodically to bound memory
func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, c := range s.counters {
		if !now.Before(c.resetAt) {
			delete(s.counters, key)
		}
	}
}

func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}
