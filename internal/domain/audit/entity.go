package audit

import (
	"time"

	"github.com/google/uuid"
)

type ActorKind string

const (
	ActorAdmin      ActorKind = "ADMIN"
	ActorConsultant ActorKind = "CONSULTANT"
	ActorAnonymous  ActorKind = "ANONYMOUS"
)

type TargetKind string

const (
	TargetConsultant TargetKind = "CONSULTANT"
	TargetAdmin      TargetKind = "ADMIN"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// Action is the closed set of audited events
type Action string

const (
	ActionConsultantCreated                Action = "CONSULTANT_CREATED"
	ActionConsultantSelfRegistered         Action = "CONSULTANT_SELF_REGISTERED"
	ActionConsultantApproved               Action = "CONSULTANT_APPROVED"
	ActionConsultantRejected               Action = "CONSULTANT_REJECTED"
	ActionConsultantSuspended              Action = "CONSULTANT_SUSPENDED"
	ActionConsultantReactivated            Action = "CONSULTANT_REACTIVATED"
	ActionConsultantPermissionsUpdated     Action = "CONSULTANT_PERMISSIONS_UPDATED"
	ActionConsultantPasswordSet            Action = "CONSULTANT_PASSWORD_SET"
	ActionConsultantPasswordResetRequested Action = "CONSULTANT_PASSWORD_RESET_REQUESTED"
	ActionConsultantSetupLinkReissued      Action = "CONSULTANT_SETUP_LINK_REISSUED"
	ActionConsultantLoginSuccess           Action = "CONSULTANT_LOGIN_SUCCESS"
	ActionConsultantLoginFailed            Action = "CONSULTANT_LOGIN_FAILED"
	ActionConsultantLocked                 Action = "CONSULTANT_LOCKED"
	ActionConsultantUnlocked               Action = "CONSULTANT_UNLOCKED"
	ActionAdminLoginSuccess                Action = "ADMIN_LOGIN_SUCCESS"
	ActionAdminLoginFailed                 Action = "ADMIN_LOGIN_FAILED"
)

// Record is an immutable audit log entry
type Record struct {
	ID           uuid.UUID
	ActorID      *uuid.UUID
	ActorKind    ActorKind
	Action       Action
	TargetKind   *TargetKind
	TargetID     *uuid.UUID
	Details      map[string]any
	IPAddress    string
	UserAgent    string
	RequestID    string
	Outcome      Outcome
	ErrorMessage *string
	CreatedAt    time.Time
}
