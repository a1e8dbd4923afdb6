package consultant

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a consultant account
type Status string

const (
	StatusPending   Status = "PENDING"   // Awaiting admin review
	StatusActive    Status = "ACTIVE"    // Approved, may log in once a password is set
	StatusRejected  Status = "REJECTED"  // Terminal
	StatusSuspended Status = "SUSPENDED" // Approved, access revoked by an admin
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusRejected, StatusSuspended:
		return true
	}
	return false
}

// Consultant represents an onboarded third-party agent
type Consultant struct {
	ID uuid.UUID

	// Identity
	Username      string
	Email         string
	FullName      string
	Phone         *string
	AgencyName    *string
	LicenseNumber *string
	Regions       []string

	// Credential, nil until the set-password step completes
	PasswordHash *string

	Permissions Permissions

	// Lifecycle
	Status          Status
	CreatedBy       *uuid.UUID
	ApprovedBy      *uuid.UUID
	ApprovedAt      *time.Time
	RejectedReason  *string
	RejectedAt      *time.Time
	SuspendedBy     *uuid.UUID
	SuspendedAt     *time.Time
	SuspendedReason *string

	// Security
	PasswordResetToken   *string // SHA-256 digest, never the plaintext
	PasswordResetExpires *time.Time
	LoginAttempts        int
	LockUntil            *time.Time
	LastLogin            *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Consultant) HasPassword() bool {
	return c.PasswordHash != nil && *c.PasswordHash != ""
}

func (c *Consultant) Lockout() LockoutState {
	return LockoutState{Attempts: c.LoginAttempts, LockUntil: c.LockUntil}
}

// LockoutState is the persisted part of the failed-login counter
type LockoutState struct {
	Attempts  int
	LockUntil *time.Time
}

// Equal compares two states the way the store's compare-and-set does.
func (s LockoutState) Equal(other LockoutState) bool {
	if s.Attempts != other.Attempts {
		return false
	}
	if s.LockUntil == nil || other.LockUntil == nil {
		return s.LockUntil == nil && other.LockUntil == nil
	}
	return s.LockUntil.Equal(*other.LockUntil)
}

// StatusChange carries every field written together with a status transition.
type StatusChange struct {
	To      Status
	ActorID uuid.UUID
	At      time.Time
	Reason  *string

	// Set on approval; written in the same update as the status
	ResetTokenDigest  *string
	ResetTokenExpires *time.Time
}
