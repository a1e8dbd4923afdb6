package consultant

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainAudit "consultant-access/internal/domain/audit"
	domainConsultant "consultant-access/internal/domain/consultant"
	"consultant-access/internal/logger"
	"consultant-access/internal/notification"
	auditUC "consultant-access/internal/usecase/audit"
	"consultant-access/internal/usecase/token"
	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/pagination"
	"consultant-access/pkg/secret"
	"consultant-access/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPermissionRetries = 3

// Service orchestrates the consultant account lifecycle
type Service struct {
	repo     domainConsultant.Repository
	hasher   secret.Hasher
	tokens   *token.Issuer
	notifier notification.Dispatcher
	audit    *auditUC.Recorder
	now      func() time.Time
}

func NewService(
	repo domainConsultant.Repository,
	hasher secret.Hasher,
	tokens *token.Issuer,
	notifier notification.Dispatcher,
	recorder *auditUC.Recorder,
) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		audit:    recorder,
		now:      time.Now,
	}
}

// Create onboards a consultant on behalf of an admin. The account starts PENDING.
func (s *Service) Create(ctx context.Context, adminID uuid.UUID, req *CreateRequest) (*Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	perms := domainConsultant.DefaultPermissions()
	if req.Permissions != nil {
		perms = perms.Merge(*req.Permissions)
	}

	c := &domainConsultant.Consultant{
		Username:      utils.NormalizeIdentifier(req.Username),
		Email:         utils.NormalizeIdentifier(req.Email),
		FullName:      utils.SanitizeString(req.FullName),
		Phone:         req.Phone,
		AgencyName:    utils.SanitizeOptional(req.AgencyName),
		LicenseNumber: utils.SanitizeOptional(req.LicenseNumber),
		Regions:       utils.SanitizeRegions(req.Regions),
		Permissions:   perms,
		Status:        domainConsultant.StatusPending,
		CreatedBy:     &adminID,
	}

	if err := s.insert(ctx, c); err != nil {
		return nil, err
	}

	logger.Info("Consultant created",
		zap.String("consultant_id", c.ID.String()),
		zap.String("username", c.Username),
		zap.String("admin_id", adminID.String()),
		zap.String("event", "consultant_created"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantCreated, adminID, c.ID, map[string]any{
		"username":    c.Username,
		"permissions": c.Permissions.Map(),
	}))
	s.notify(ctx, notification.AccountCreated(c.Email, c.Username))

	return ToResponse(c), nil
}

// SelfRegister is the public sign-up path. Permissions are always the defaults.
func (s *Service) SelfRegister(ctx context.Context, req *RegisterRequest) (*Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	c := &domainConsultant.Consultant{
		Username:      utils.NormalizeIdentifier(req.Username),
		Email:         utils.NormalizeIdentifier(req.Email),
		FullName:      utils.SanitizeString(req.FullName),
		Phone:         req.Phone,
		AgencyName:    utils.SanitizeOptional(req.AgencyName),
		LicenseNumber: utils.SanitizeOptional(req.LicenseNumber),
		Regions:       utils.SanitizeRegions(req.Regions),
		Permissions:   domainConsultant.DefaultPermissions(),
		Status:        domainConsultant.StatusPending,
	}

	if err := s.insert(ctx, c); err != nil {
		return nil, err
	}

	logger.Info("Consultant self-registered",
		zap.String("consultant_id", c.ID.String()),
		zap.String("username", c.Username),
		zap.String("event", "consultant_self_registered"),
	)
	s.audit.Record(ctx, auditUC.ByConsultant(domainAudit.ActionConsultantSelfRegistered, c.ID, map[string]any{
		"username": c.Username,
	}))
	s.notify(ctx, notification.AccountCreated(c.Email, c.Username))

	return ToResponse(c), nil
}

func (s *Service) insert(ctx context.Context, c *domainConsultant.Consultant) error {
	for _, check := range []struct {
		field  string
		exists func(context.Context, string) (bool, error)
		value  string
	}{
		{"username", s.repo.ExistsByUsername, c.Username},
		{"email", s.repo.ExistsByEmail, c.Email},
	} {
		taken, err := check.exists(ctx, check.value)
		if err != nil {
			return fmt.Errorf("failed to check existing %s: %w", check.field, err)
		}
		if taken {
			logger.Warn("Consultant registration with existing "+check.field,
				zap.String(check.field, check.value),
				zap.String("event", "registration_failed_duplicate_"+check.field),
			)
			return appErrors.Conflict(check.field)
		}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		var conflict *domainConsultant.ConflictError
		if errors.As(err, &conflict) {
			return appErrors.Conflict(conflict.Field)
		}
		return fmt.Errorf("failed to create consultant: %w", err)
	}
	return nil
}

// Approve moves a PENDING consultant to ACTIVE and issues a setup token in the
// same conditional update. With notify off the plaintext link is returned
// instead of sent, so the admin can hand it over.
func (s *Service) Approve(ctx context.Context, id, adminID uuid.UUID, notify bool) (*ApproveResponse, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domainConsultant.ValidateTransition(domainConsultant.TransitionApprove, current.Status); err != nil {
		return nil, err
	}

	issued, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}

	c, err := s.transition(ctx, id, domainConsultant.TransitionApprove, domainConsultant.StatusChange{
		ActorID:           adminID,
		ResetTokenDigest:  &issued.Digest,
		ResetTokenExpires: &issued.ExpiresAt,
	})
	if err != nil {
		return nil, err
	}

	link := s.tokens.SetupLink(issued.Plain)

	logger.Info("Consultant approved",
		zap.String("consultant_id", c.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.Bool("notify", notify),
		zap.String("event", "consultant_approved"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantApproved, adminID, c.ID, map[string]any{
		"notify":           notify,
		"token_expires_at": issued.ExpiresAt,
	}))
	resp := &ApproveResponse{Consultant: ToResponse(c)}
	if notify {
		s.notify(ctx, notification.AccountApproved(c.Email, c.Username, link))
	} else {
		resp.SetupLink = link
	}

	return resp, nil
}

func (s *Service) Reject(ctx context.Context, id, adminID uuid.UUID, req *RejectRequest) (*Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domainConsultant.ValidateTransition(domainConsultant.TransitionReject, current.Status); err != nil {
		return nil, err
	}

	reason := utils.SanitizeText(req.Reason)
	c, err := s.transition(ctx, id, domainConsultant.TransitionReject, domainConsultant.StatusChange{
		ActorID: adminID,
		Reason:  &reason,
	})
	if err != nil {
		return nil, err
	}

	notify := req.Notify == nil || *req.Notify

	logger.Info("Consultant rejected",
		zap.String("consultant_id", c.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("event", "consultant_rejected"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantRejected, adminID, c.ID, map[string]any{
		"reason": reason,
		"notify": notify,
	}))
	if notify {
		s.notify(ctx, notification.AccountRejected(c.Email, c.Username, reason))
	}

	return ToResponse(c), nil
}

func (s *Service) Suspend(ctx context.Context, id, adminID uuid.UUID, req *SuspendRequest) (*Response, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domainConsultant.ValidateTransition(domainConsultant.TransitionSuspend, current.Status); err != nil {
		return nil, err
	}

	change := domainConsultant.StatusChange{ActorID: adminID}
	if reason := utils.SanitizeText(req.Reason); reason != "" {
		change.Reason = &reason
	}

	c, err := s.transition(ctx, id, domainConsultant.TransitionSuspend, change)
	if err != nil {
		return nil, err
	}

	logger.Info("Consultant suspended",
		zap.String("consultant_id", c.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("event", "consultant_suspended"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantSuspended, adminID, c.ID, map[string]any{
		"reason": req.Reason,
	}))

	return ToResponse(c), nil
}

func (s *Service) Reactivate(ctx context.Context, id, adminID uuid.UUID) (*Response, error) {
	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domainConsultant.ValidateTransition(domainConsultant.TransitionReactivate, current.Status); err != nil {
		return nil, err
	}

	c, err := s.transition(ctx, id, domainConsultant.TransitionReactivate, domainConsultant.StatusChange{ActorID: adminID})
	if err != nil {
		return nil, err
	}

	logger.Info("Consultant reactivated",
		zap.String("consultant_id", c.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("event", "consultant_reactivated"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantReactivated, adminID, c.ID, nil))

	return ToResponse(c), nil
}

// transition applies one edge of the state machine. When the conditional
// update loses a race the error reflects the status that won.
func (s *Service) transition(ctx context.Context, id uuid.UUID, t domainConsultant.Transition, change domainConsultant.StatusChange) (*domainConsultant.Consultant, error) {
	from, to := t.Edge()
	change.To = to
	change.At = s.now()

	c, err := s.repo.TransitionStatus(ctx, id, from, change)
	if err == nil {
		return c, nil
	}

	var stale *domainConsultant.StaleStatusError
	switch {
	case errors.As(err, &stale):
		logger.Warn("Consultant status changed concurrently",
			zap.String("consultant_id", id.String()),
			zap.String("expected", string(stale.Expected)),
			zap.String("current", string(stale.Current)),
			zap.String("event", "transition_conflict"),
		)
		return nil, domainConsultant.ValidateTransition(t, stale.Current)
	case errors.Is(err, domainConsultant.ErrNotFound):
		return nil, appErrors.NotFound("consultant")
	}
	return nil, fmt.Errorf("failed to %s consultant: %w", t, err)
}

// SetPassword consumes a setup token and stores the new credential.
func (s *Service) SetPassword(ctx context.Context, req *SetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.Validation("Invalid input", err)
	}
	if err := secret.ValidatePasswordStrength(req.NewPassword); err != nil {
		return appErrors.NewAppError(appErrors.CodeWeakPassword, err.Error(), nil)
	}

	c, err := s.tokens.Validate(ctx, req.Token)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidToken) {
			logger.Warn("Password setup with invalid or expired token",
				zap.String("event", "set_password_invalid_token"),
			)
		}
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.tokens.Consume(ctx, c, req.Token, hash); err != nil {
		if errors.Is(err, appErrors.ErrInvalidToken) {
			logger.Warn("Setup token consumed concurrently",
				zap.String("consultant_id", c.ID.String()),
				zap.String("event", "set_password_token_reused"),
			)
		}
		return err
	}

	logger.Info("Consultant password set",
		zap.String("consultant_id", c.ID.String()),
		zap.String("event", "password_set"),
	)
	s.audit.Record(ctx, auditUC.ByConsultant(domainAudit.ActionConsultantPasswordSet, c.ID, nil))
	s.notify(ctx, notification.PasswordSet(c.Email, c.Username))

	return nil
}

// UpdatePermissions merges a partial patch. Unset flags keep their value.
func (s *Service) UpdatePermissions(ctx context.Context, id, adminID uuid.UUID, patch *domainConsultant.PermissionPatch) (*PermissionsResponse, error) {
	if patch == nil || patch.IsEmpty() {
		return nil, appErrors.Validation("At least one permission flag is required", nil)
	}

	var previous, next domainConsultant.Permissions
	for attempt := 1; ; attempt++ {
		c, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}

		previous = c.Permissions
		next = previous.Merge(*patch)

		err = s.repo.UpdatePermissions(ctx, id, previous, next)
		if err == nil {
			break
		}
		if errors.Is(err, domainConsultant.ErrPermissionsStale) && attempt < maxPermissionRetries {
			continue
		}
		if errors.Is(err, domainConsultant.ErrNotFound) {
			return nil, appErrors.NotFound("consultant")
		}
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	logger.Info("Consultant permissions updated",
		zap.String("consultant_id", id.String()),
		zap.String("admin_id", adminID.String()),
		zap.Any("permissions", next),
		zap.String("event", "permissions_updated"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantPermissionsUpdated, adminID, id, map[string]any{
		"old": previous.Map(),
		"new": next.Map(),
	}))

	return &PermissionsResponse{ID: id, Permissions: next}, nil
}

// CurrentPermissions reads the persisted flags, never a cached copy.
func (s *Service) CurrentPermissions(ctx context.Context, id uuid.UUID) (domainConsultant.Permissions, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return domainConsultant.Permissions{}, err
	}
	return c.Permissions, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Response, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToResponse(c), nil
}

func (s *Service) List(ctx context.Context, req *ListRequest) (*pagination.Response, error) {
	if req.Status != nil && !req.Status.Valid() {
		return nil, appErrors.Validation(fmt.Sprintf("unknown status %q", *req.Status), nil)
	}

	params := pagination.New(req.Page, req.Limit)
	items, total, err := s.repo.List(ctx, domainConsultant.Filter{
		Status: req.Status,
		Search: utils.SanitizeString(req.Search),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list consultants: %w", err)
	}

	resp := pagination.NewResponse(ToResponses(items), params, total)
	return &resp, nil
}

// ResendSetupLink re-issues the setup token for an approved account that
// never set a password. Any earlier token stops working.
func (s *Service) ResendSetupLink(ctx context.Context, id, adminID uuid.UUID) error {
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if c.Status != domainConsultant.StatusActive {
		return appErrors.InvalidTransition(string(c.Status), string(domainConsultant.StatusActive))
	}
	if c.HasPassword() {
		return appErrors.Validation("Consultant has already set a password", nil)
	}

	issued, err := s.tokens.Reissue(ctx, c.ID)
	if err != nil {
		if errors.Is(err, domainConsultant.ErrNotFound) {
			return appErrors.NotFound("consultant")
		}
		return fmt.Errorf("failed to reissue setup token: %w", err)
	}

	logger.Info("Setup link reissued",
		zap.String("consultant_id", c.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("event", "setup_link_reissued"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantSetupLinkReissued, adminID, c.ID, map[string]any{
		"token_expires_at": issued.ExpiresAt,
	}))
	s.notify(ctx, notification.AccountApproved(c.Email, c.Username, s.tokens.SetupLink(issued.Plain)))

	return nil
}

// RequestPasswordReset always succeeds from the caller's point of view so
// the response cannot be used to probe which accounts exist.
func (s *Service) RequestPasswordReset(ctx context.Context, req *ForgotPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.Validation("Invalid input", err)
	}

	identifier := utils.NormalizeIdentifier(req.Identifier)
	c, err := s.repo.GetByLogin(ctx, identifier)
	if err != nil {
		if !errors.Is(err, domainConsultant.ErrNotFound) {
			logger.Error("Failed to look up consultant for password reset", zap.Error(err))
		}
		logger.Info("Password reset requested for unknown identifier",
			zap.String("identifier", identifier),
			zap.String("event", "password_reset_unknown_identifier"),
		)
		return nil
	}
	if c.Status != domainConsultant.StatusActive {
		logger.Info("Password reset requested for inactive account",
			zap.String("consultant_id", c.ID.String()),
			zap.String("status", string(c.Status)),
			zap.String("event", "password_reset_inactive_account"),
		)
		return nil
	}

	issued, err := s.tokens.Reissue(ctx, c.ID)
	if err != nil {
		logger.Error("Failed to issue password reset token",
			zap.String("consultant_id", c.ID.String()),
			zap.Error(err),
		)
		return nil
	}

	logger.Info("Password reset requested",
		zap.String("consultant_id", c.ID.String()),
		zap.String("event", "password_reset_requested"),
	)
	s.audit.Record(ctx, auditUC.ByConsultant(domainAudit.ActionConsultantPasswordResetRequested, c.ID, map[string]any{
		"token_expires_at": issued.ExpiresAt,
	}))
	s.notify(ctx, notification.PasswordReset(c.Email, c.Username, s.tokens.SetupLink(issued.Plain)))

	return nil
}

// Unlock clears the failed-login counter and any active lock.
func (s *Service) Unlock(ctx context.Context, id, adminID uuid.UUID) (*Response, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpdateLockout(ctx, id, c.Lockout(), domainConsultant.LockoutState{})
	if errors.Is(err, domainConsultant.ErrLockoutStale) {
		// A concurrent failure bumped the counter, retry once from the fresh state.
		if c, err = s.get(ctx, id); err != nil {
			return nil, err
		}
		err = s.repo.UpdateLockout(ctx, id, c.Lockout(), domainConsultant.LockoutState{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unlock consultant: %w", err)
	}

	previous := c.Lockout()
	c.LoginAttempts = 0
	c.LockUntil = nil

	logger.Info("Consultant unlocked",
		zap.String("consultant_id", id.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("event", "consultant_unlocked"),
	)
	s.audit.Record(ctx, auditUC.ByAdmin(domainAudit.ActionConsultantUnlocked, adminID, id, map[string]any{
		"previous_attempts": previous.Attempts,
	}))

	return ToResponse(c), nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*domainConsultant.Consultant, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainConsultant.ErrNotFound) {
			return nil, appErrors.NotFound("consultant")
		}
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}
	return c, nil
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if err := s.notifier.Send(ctx, msg); err != nil {
		logger.Warn("Failed to dispatch notification",
			zap.String("subject", msg.Subject),
			zap.Error(err),
			zap.String("event", "notification_failed"),
		)
	}
}
