package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("admin not found")
	ErrEmailTaken = errors.New("admin email already exists")
)

// Repository is read-only for the rest of the service, Create exists for seeding.
type Repository interface {
	Create(ctx context.Context, a *Admin) error
	GetByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}
