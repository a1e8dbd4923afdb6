package consultant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence port for consultant accounts.
// Every mutating method is a single conditional update on one record.
type Repository interface {
	Create(ctx context.Context, c *Consultant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultant, error)
	GetByLogin(ctx context.Context, identifier string) (*Consultant, error)
	GetByResetTokenDigest(ctx context.Context, digest string) (*Consultant, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter Filter) ([]*Consultant, int64, error)

	TransitionStatus(ctx context.Context, id uuid.UUID, from Status, change StatusChange) (*Consultant, error)
	UpdatePermissions(ctx context.Context, id uuid.UUID, expected, next Permissions) error
	SetResetToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error
	ConsumeResetToken(ctx context.Context, id uuid.UUID, digest, passwordHash string, now time.Time) error
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
	UpdateLockout(ctx context.Context, id uuid.UUID, expected, next LockoutState) error
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Filter represents filtering options for listing consultants
type Filter struct {
	Status *Status
	Search string

	Limit  int
	Offset int
}
