package ratelimit

import (
	"context"
	"time"
)

// Store counts hits per key inside a fixed window. Increment must be atomic
// per key so concurrent requests are never under-counted.
type Store interface {
	// Increment adds one hit and returns the count in the current window
	// together with the time left until the window resets.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Decrement removes one hit, used to stop counting successful attempts.
	Decrement(ctx context.Context, key string) error
}
