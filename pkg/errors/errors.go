package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how callers should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindInvalidTransition
	KindInvalidCredentials
	KindUnauthenticated
	KindAccountLocked
	KindAccountNotActive
	KindInvalidToken
	KindPermissionDenied
	KindForbiddenRole
	KindRateLimited
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyApproved    = "ALREADY_APPROVED"
	CodeAlreadyRejected    = "ALREADY_REJECTED"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeAccountPending     = "ACCOUNT_PENDING"
	CodeAccountRejected    = "ACCOUNT_REJECTED"
	CodeAccountSuspended   = "ACCOUNT_SUSPENDED"
	CodeInvalidToken       = "INVALID_OR_EXPIRED_TOKEN"
	CodeSessionExpired     = "SESSION_EXPIRED"
	CodeInvalidSession     = "INVALID_SESSION"
	CodePermissionDenied   = "PERMISSION_DENIED"
	CodeForbiddenRole      = "FORBIDDEN_ROLE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

var (
	ErrInvalidCredentials = New(KindInvalidCredentials, CodeInvalidCredentials, "invalid username or password")
	ErrAccountLocked      = New(KindAccountLocked, CodeAccountLocked, "account is temporarily locked due to too many failed login attempts")
	ErrAccountPending     = New(KindAccountNotActive, CodeAccountPending, "account is pending admin approval")
	ErrAccountRejected    = New(KindAccountNotActive, CodeAccountRejected, "account registration was rejected")
	ErrAccountSuspended   = New(KindAccountNotActive, CodeAccountSuspended, "account has been suspended, contact an administrator")

	ErrInvalidToken   = New(KindInvalidToken, CodeInvalidToken, "invalid or expired token")
	ErrSessionExpired = New(KindUnauthenticated, CodeSessionExpired, "session expired, please log in again")
	ErrInvalidSession = New(KindUnauthenticated, CodeInvalidSession, "invalid or missing session token")

	ErrAlreadyApproved   = New(KindInvalidTransition, CodeAlreadyApproved, "consultant is already approved")
	ErrAlreadyRejected   = New(KindInvalidTransition, CodeAlreadyRejected, "consultant is already rejected")
	ErrUsernameTaken     = New(KindConflict, CodeUsernameTaken, "username already exists")
	ErrEmailTaken        = New(KindConflict, CodeEmailTaken, "email already exists")
	ErrNotFound          = New(KindNotFound, CodeNotFound, "resource not found")
	ErrForbiddenRole     = New(KindForbiddenRole, CodeForbiddenRole, "insufficient role for this operation")
	ErrPermissionDenied  = New(KindPermissionDenied, CodePermissionDenied, "permission denied")
	ErrRateLimited       = New(KindRateLimited, CodeRateLimited, "too many requests, please try again later")
	ErrInternal          = New(KindInternal, CodeInternal, "internal server error")
	ErrInvalidTransition = New(KindInvalidTransition, CodeInvalidTransition, "invalid status transition")
)

// AppError is the structured error surfaced to API callers.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
	Details map[string]any
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so that freshly built errors compare equal to the sentinels.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// HTTPStatus maps the error kind onto a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindConflict, KindInvalidTransition, KindInvalidToken:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindAccountLocked, KindAccountNotActive, KindPermissionDenied, KindForbiddenRole:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Code: CodeValidation, Message: message, Err: err}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

// InvalidTransition reports a lifecycle move that the state machine does not allow.
func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Kind:    KindInvalidTransition,
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

// PermissionDenied names the missing capability.
func PermissionDenied(capability string) *AppError {
	return &AppError{
		Kind:    KindPermissionDenied,
		Code:    CodePermissionDenied,
		Message: fmt.Sprintf("permission denied: %s is required", capability),
		Details: map[string]any{"capability": capability},
	}
}

// Conflict reports a uniqueness violation on the given field.
func Conflict(field string) *AppError {
	switch field {
	case "username":
		return New(KindConflict, CodeUsernameTaken, ErrUsernameTaken.Message).withField(field)
	case "email":
		return New(KindConflict, CodeEmailTaken, ErrEmailTaken.Message).withField(field)
	default:
		return New(KindConflict, "CONFLICT", field+" already exists").withField(field)
	}
}

func (e *AppError) withField(field string) *AppError {
	e.Details = map[string]any{"field": field}
	return e
}

// As is a convenience around errors.As for *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
