package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	fresh := New(KindInvalidTransition, CodeAlreadyApproved, "some other message")
	wrapped := fmt.Errorf("approve: %w", fresh)

	assert.True(t, errors.Is(wrapped, ErrAlreadyApproved))
	assert.False(t, errors.Is(wrapped, ErrAlreadyRejected))
}

func TestConflict_NamesField(t *testing.T) {
	err := Conflict("email")

	assert.True(t, errors.Is(err, ErrEmailTaken))
	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[*AppError]int{
		ErrInvalidCredentials:       http.StatusUnauthorized,
		ErrSessionExpired:           http.StatusUnauthorized,
		ErrAccountLocked:            http.StatusForbidden,
		ErrAccountSuspended:         http.StatusForbidden,
		ErrInvalidToken:             http.StatusBadRequest,
		PermissionDenied("edit"):    http.StatusForbidden,
		NotFound("consultant"):      http.StatusNotFound,
		ErrRateLimited:              http.StatusTooManyRequests,
		ErrInternal:                 http.StatusInternalServerError,
		InvalidTransition("A", "B"): http.StatusBadRequest,
	}

	for err, status := range cases {
		assert.Equal(t, status, err.HTTPStatus(), err.Code)
	}
}

func TestAs(t *testing.T) {
	_, ok := As(errors.New("plain"))
	assert.False(t, ok)

	appErr, ok := As(fmt.Errorf("wrap: %w", ErrAccountLocked))
	assert.True(t, ok)
	assert.Equal(t, CodeAccountLocked, appErr.Code)
}
