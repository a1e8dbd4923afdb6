package consultant

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("consultant not found")
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
	ErrLockoutStale      = errors.New("lockout state changed concurrently")
	ErrPermissionsStale  = errors.New("permissions changed concurrently")
)

// ConflictError reports which unique field collided
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("consultant %s already exists", e.Field)
}

// StaleStatusError is returned when a conditional status update lost a race
// or the record was not in the expected state.
type StaleStatusError struct {
	Expected Status
	Current  Status
}

func (e *StaleStatusError) Error() string {
	return fmt.Sprintf("consultant status is %s, expected %s", e.Current, e.Expected)
}
