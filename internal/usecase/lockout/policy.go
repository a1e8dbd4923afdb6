package lockout

import (
	"time"

	"consultant-access/internal/domain/consultant"
)

const (
	DefaultThreshold = 5
	DefaultDuration  = 2 * time.Hour
)

// Policy decides how failed and successful logins move the lockout state.
// It is pure, persistence happens in the caller.
type Policy struct {
	Threshold int
	Duration  time.Duration
	Now       func() time.Time
}

func NewPolicy(threshold int, duration time.Duration) *Policy {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Policy{Threshold: threshold, Duration: duration, Now: time.Now}
}

func (p *Policy) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// IsLocked is derived from lockUntil only, never persisted separately.
func (p *Policy) IsLocked(state consultant.LockoutState) bool {
	return state.LockUntil != nil && state.LockUntil.After(p.now())
}

// OnFailure returns the state after one more failed attempt. An expired lock
// restarts the count at one.
func (p *Policy) OnFailure(state consultant.LockoutState) consultant.LockoutState {
	now := p.now()

	if state.LockUntil != nil && !state.LockUntil.After(now) {
		return consultant.LockoutState{Attempts: 1}
	}

	next := consultant.LockoutState{
		Attempts:  state.Attempts + 1,
		LockUntil: state.LockUntil,
	}
	if next.Attempts >= p.Threshold && next.LockUntil == nil {
		until := now.Add(p.Duration)
		next.LockUntil = &until
	}
	return next
}

func (p *Policy) OnSuccess() consultant.LockoutState {
	return consultant.LockoutState{}
}

// JustLocked reports a transition from unlocked to locked.
func (p *Policy) JustLocked(prev, next consultant.LockoutState) bool {
	return !p.IsLocked(prev) && p.IsLocked(next)
}
