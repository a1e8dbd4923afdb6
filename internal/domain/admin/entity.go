package admin

import (
	"time"

	"github.com/google/uuid"
)

// Admin is a platform operator. Accounts are provisioned out of band.
type Admin struct {
	ID           uuid.UUID
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
