package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"consultant-access/internal/domain/consultant"

	"github.com/google/uuid"
)

// ConsultantRepository keeps consultants in process memory. Each method holds
// the lock for its whole read-check-write so updates stay conditional.
type ConsultantRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*consultant.Consultant
}

func NewConsultantRepository() *ConsultantRepository {
	return &ConsultantRepository{items: make(map[uuid.UUID]*consultant.Consultant)}
}

func (r *ConsultantRepository) Create(_ context.Context, c *consultant.Consultant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Username == c.Username {
			return &consultant.ConflictError{Field: "username"}
		}
		if existing.Email == c.Email {
			return &consultant.ConflictError{Field: "email"}
		}
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = consultant.StatusPending
	}

	r.items[c.ID] = clone(c)
	return nil
}

func (r *ConsultantRepository) GetByID(_ context.Context, id uuid.UUID) (*consultant.Consultant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return nil, consultant.ErrNotFound
	}
	return clone(c), nil
}

func (r *ConsultantRepository) GetByLogin(_ context.Context, identifier string) (*consultant.Consultant, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return r.find(func(c *consultant.Consultant) bool {
		return c.Username == identifier || c.Email == identifier
	})
}

func (r *ConsultantRepository) GetByResetTokenDigest(_ context.Context, digest string) (*consultant.Consultant, error) {
	if digest == "" {
		return nil, consultant.ErrNotFound
	}
	return r.find(func(c *consultant.Consultant) bool {
		return c.PasswordResetToken != nil && *c.PasswordResetToken == digest
	})
}

func (r *ConsultantRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	_, err := r.find(func(c *consultant.Consultant) bool { return c.Username == username })
	return err == nil, nil
}

func (r *ConsultantRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, err := r.find(func(c *consultant.Consultant) bool { return c.Email == email })
	return err == nil, nil
}

func (r *ConsultantRepository) find(match func(*consultant.Consultant) bool) (*consultant.Consultant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.items {
		if match(c) {
			return clone(c), nil
		}
	}
	return nil, consultant.ErrNotFound
}

func (r *ConsultantRepository) List(_ context.Context, filter consultant.Filter) ([]*consultant.Consultant, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]*consultant.Consultant, 0, len(r.items))
	for _, c := range r.items {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if search != "" && !matchesSearch(c, search) {
			continue
		}
		matched = append(matched, c)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	start := filter.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*consultant.Consultant, 0, end-start)
	for _, c := range matched[start:end] {
		out = append(out, clone(c))
	}
	return out, total, nil
}

func matchesSearch(c *consultant.Consultant, search string) bool {
	fields := []string{c.Username, c.Email, strings.ToLower(c.FullName)}
	if c.AgencyName != nil {
		fields = append(fields, strings.ToLower(*c.AgencyName))
	}
	for _, f := range fields {
		if strings.Contains(f, search) {
			return true
		}
	}
	return false
}

func (r *ConsultantRepository) TransitionStatus(_ context.Context, id uuid.UUID, from consultant.Status, change consultant.StatusChange) (*consultant.Consultant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok {
		return nil, consultant.ErrNotFound
	}
	if c.Status != from {
		return nil, &consultant.StaleStatusError{Expected: from, Current: c.Status}
	}

	actor := change.ActorID
	at := change.At

	switch {
	case from == consultant.StatusPending && change.To == consultant.StatusActive:
		c.ApprovedBy = &actor
		c.ApprovedAt = &at
		c.RejectedReason = nil
		c.RejectedAt = nil
		c.PasswordResetToken = change.ResetTokenDigest
		c.PasswordResetExpires = change.ResetTokenExpires
	case change.To == consultant.StatusRejected:
		c.RejectedReason = change.Reason
		c.RejectedAt = &at
	case change.To == consultant.StatusSuspended:
		c.SuspendedBy = &actor
		c.SuspendedAt = &at
		c.SuspendedReason = change.Reason
	case from == consultant.StatusSuspended && change.To == consultant.StatusActive:
		c.SuspendedBy = nil
		c.SuspendedAt = nil
		c.SuspendedReason = nil
	}

	c.Status = change.To
	c.UpdatedAt = at
	return clone(c), nil
}

func (r *ConsultantRepository) UpdatePermissions(_ context.Context, id uuid.UUID, expected, next consultant.Permissions) error {
	return r.mutate(id, func(c *consultant.Consultant) error {
		if c.Permissions != expected {
			return consultant.ErrPermissionsStale
		}
		c.Permissions = next
		return nil
	})
}

func (r *ConsultantRepository) SetResetToken(_ context.Context, id uuid.UUID, digest string, expires time.Time) error {
	return r.mutate(id, func(c *consultant.Consultant) error {
		c.PasswordResetToken = &digest
		c.PasswordResetExpires = &expires
		return nil
	})
}

func (r *ConsultantRepository) ConsumeResetToken(_ context.Context, id uuid.UUID, digest, passwordHash string, now time.Time) error {
	err := r.mutate(id, func(c *consultant.Consultant) error {
		if c.PasswordResetToken == nil || *c.PasswordResetToken != digest ||
			c.Status != consultant.StatusActive ||
			c.PasswordResetExpires == nil || !c.PasswordResetExpires.After(now) {
			return consultant.ErrResetTokenInvalid
		}
		c.PasswordHash = &passwordHash
		c.PasswordResetToken = nil
		c.PasswordResetExpires = nil
		return nil
	})
	if errors.Is(err, consultant.ErrNotFound) {
		return consultant.ErrResetTokenInvalid
	}
	return err
}

func (r *ConsultantRepository) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for id, c := range r.items {
		if c.PasswordResetToken == nil || c.PasswordResetExpires == nil || c.PasswordResetExpires.After(now) {
			continue
		}
		updated := clone(c)
		updated.PasswordResetToken = nil
		updated.PasswordResetExpires = nil
		updated.UpdatedAt = now
		r.items[id] = updated
		cleared++
	}
	return cleared, nil
}

func (r *ConsultantRepository) UpdateLockout(_ context.Context, id uuid.UUID, expected, next consultant.LockoutState) error {
	err := r.mutate(id, func(c *consultant.Consultant) error {
		if !c.Lockout().Equal(expected) {
			return consultant.ErrLockoutStale
		}
		c.LoginAttempts = next.Attempts
		c.LockUntil = copyTime(next.LockUntil)
		return nil
	})
	if errors.Is(err, consultant.ErrNotFound) {
		return consultant.ErrLockoutStale
	}
	return err
}

func (r *ConsultantRepository) RecordLoginSuccess(_ context.Context, id uuid.UUID, at time.Time) error {
	return r.mutate(id, func(c *consultant.Consultant) error {
		c.LoginAttempts = 0
		c.LockUntil = nil
		c.LastLogin = &at
		return nil
	})
}

func (r *ConsultantRepository) mutate(id uuid.UUID, fn func(*consultant.Consultant) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok {
		return consultant.ErrNotFound
	}

	updated := clone(c)
	if err := fn(updated); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now()
	r.items[id] = updated
	return nil
}

func clone(c *consultant.Consultant) *consultant.Consultant {
	out := *c
	if c.Regions != nil {
		out.Regions = append([]string(nil), c.Regions...)
	}
	out.PasswordHash = copyString(c.PasswordHash)
	out.PasswordResetToken = copyString(c.PasswordResetToken)
	out.PasswordResetExpires = copyTime(c.PasswordResetExpires)
	out.LockUntil = copyTime(c.LockUntil)
	return &out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
