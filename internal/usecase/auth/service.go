package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consultant-access/internal/domain/admin"
	domainAudit "consultant-access/internal/domain/audit"
	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/domain/identity"
	"consultant-access/internal/logger"
	auditUC "consultant-access/internal/usecase/audit"
	consultantUC "consultant-access/internal/usecase/consultant"
	"consultant-access/internal/usecase/lockout"
	appErrors "consultant-access/pkg/errors"
	"consultant-access/pkg/jwt"
	"consultant-access/pkg/secret"
	"consultant-access/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxLockoutRetries = 3

// Service authenticates consultants and admins and resolves bearer sessions.
type Service struct {
	consultants consultant.Repository
	admins      admin.Repository
	hasher      secret.Hasher
	codec       *jwt.Codec
	lockout     *lockout.Policy
	audit       *auditUC.Recorder
	now         func() time.Time
}

func NewService(
	consultants consultant.Repository,
	admins admin.Repository,
	hasher secret.Hasher,
	codec *jwt.Codec,
	policy *lockout.Policy,
	recorder *auditUC.Recorder,
) *Service {
	return &Service{
		consultants: consultants,
		admins:      admins,
		hasher:      hasher,
		codec:       codec,
		lockout:     policy,
		audit:       recorder,
		now:         time.Now,
	}
}

// Login authenticates a consultant by username or email.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	identifier := utils.NormalizeIdentifier(req.Identifier)
	log := logger.WithRequestID(identity.RequestMetaFromContext(ctx).RequestID)

	c, err := s.consultants.GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, consultant.ErrNotFound) {
			log.Warn("Login attempt with unknown identifier",
				zap.String("identifier", identifier),
				zap.String("event", "login_failed_unknown_identifier"),
			)
			s.audit.Record(ctx, auditUC.Anonymous(domainAudit.ActionConsultantLoginFailed,
				map[string]any{"identifier": identifier, "reason": "unknown_identifier"},
				appErrors.ErrInvalidCredentials,
			))
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load consultant: %w", err)
	}

	if s.lockout.IsLocked(c.Lockout()) {
		log.Warn("Login attempt on locked account",
			zap.String("consultant_id", c.ID.String()),
			zap.String("event", "login_failed_locked"),
		)
		s.recordLoginFailure(ctx, c.ID, "locked", appErrors.ErrAccountLocked)
		return nil, appErrors.ErrAccountLocked
	}

	if err := StatusError(c.Status); err != nil {
		log.Warn("Login attempt on inactive account",
			zap.String("consultant_id", c.ID.String()),
			zap.String("status", string(c.Status)),
			zap.String("event", "login_failed_not_active"),
		)
		s.recordLoginFailure(ctx, c.ID, "status_"+string(c.Status), err)
		return nil, err
	}

	if !c.HasPassword() || !s.hasher.Verify(req.Password, *c.PasswordHash) {
		log.Warn("Login attempt with invalid password",
			zap.String("consultant_id", c.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		s.registerFailure(ctx, c)
		s.recordLoginFailure(ctx, c.ID, "invalid_password", appErrors.ErrInvalidCredentials)
		return nil, appErrors.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.consultants.RecordLoginSuccess(ctx, c.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	c.LoginAttempts = 0
	c.LockUntil = nil
	c.LastLogin = &now

	token, expiresAt, err := s.codec.Sign(c.ID, string(identity.RoleConsultant), c.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	log.Info("Consultant logged in successfully",
		zap.String("consultant_id", c.ID.String()),
		zap.String("username", c.Username),
		zap.String("event", "login_success"),
	)
	s.audit.Record(ctx, auditUC.ByConsultant(domainAudit.ActionConsultantLoginSuccess, c.ID, nil))

	return &LoginResponse{
		Token:      token,
		ExpiresAt:  expiresAt,
		Consultant: consultantUC.ToResponse(c),
	}, nil
}

// registerFailure bumps the failed-attempt counter with a bounded
// compare-and-set loop so concurrent failures are all counted.
func (s *Service) registerFailure(ctx context.Context, c *consultant.Consultant) {
	current := c
	for attempt := 0; attempt < maxLockoutRetries; attempt++ {
		prev := current.Lockout()
		next := s.lockout.OnFailure(prev)

		err := s.consultants.UpdateLockout(ctx, current.ID, prev, next)
		if err == nil {
			if s.lockout.JustLocked(prev, next) {
				logger.Warn("Consultant account locked",
					zap.String("consultant_id", current.ID.String()),
					zap.Int("attempts", next.Attempts),
					zap.String("event", "account_locked"),
				)
				s.audit.Record(ctx, auditUC.Entry{
					Action:     domainAudit.ActionConsultantLocked,
					ActorKind:  domainAudit.ActorAnonymous,
					TargetKind: domainAudit.TargetConsultant,
					TargetID:   &current.ID,
					Details:    map[string]any{"attempts": next.Attempts, "lock_until": next.LockUntil},
				})
			}
			return
		}
		if !errors.Is(err, consultant.ErrLockoutStale) {
			logger.Error("Failed to update lockout state", zap.String("consultant_id", c.ID.String()), zap.Error(err))
			return
		}

		current, err = s.consultants.GetByID(ctx, c.ID)
		if err != nil {
			logger.Error("Failed to reload lockout state", zap.String("consultant_id", c.ID.String()), zap.Error(err))
			return
		}
	}

	logger.Warn("Gave up updating lockout state after concurrent writes",
		zap.String("consultant_id", c.ID.String()),
		zap.String("event", "lockout_contention"),
	)
}

func (s *Service) recordLoginFailure(ctx context.Context, id uuid.UUID, reason string, err error) {
	s.audit.Record(ctx, auditUC.Entry{
		Action:     domainAudit.ActionConsultantLoginFailed,
		ActorKind:  domainAudit.ActorAnonymous,
		TargetKind: domainAudit.TargetConsultant,
		TargetID:   &id,
		Details:    map[string]any{"reason": reason},
		Err:        err,
	})
}

// AdminLogin authenticates a platform admin by email.
func (s *Service) AdminLogin(ctx context.Context, req *AdminLoginRequest) (*AdminLoginResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.Validation("Invalid input", err)
	}

	email := utils.NormalizeIdentifier(req.Email)

	a, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, admin.ErrNotFound) {
			logger.Warn("Admin login attempt with unknown email",
				zap.String("email", email),
				zap.String("event", "admin_login_failed_unknown_email"),
			)
			s.audit.Record(ctx, auditUC.Anonymous(domainAudit.ActionAdminLoginFailed,
				map[string]any{"email": email}, appErrors.ErrInvalidCredentials))
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}

	if !s.hasher.Verify(req.Password, a.PasswordHash) {
		logger.Warn("Admin login attempt with invalid password",
			zap.String("admin_id", a.ID.String()),
			zap.String("event", "admin_login_failed_invalid_password"),
		)
		s.audit.Record(ctx, auditUC.Entry{
			Action:     domainAudit.ActionAdminLoginFailed,
			ActorKind:  domainAudit.ActorAnonymous,
			TargetKind: domainAudit.TargetAdmin,
			TargetID:   &a.ID,
			Err:        appErrors.ErrInvalidCredentials,
		})
		return nil, appErrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.codec.Sign(a.ID, string(identity.RoleAdmin), a.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session: %w", err)
	}

	logger.Info("Admin logged in successfully",
		zap.String("admin_id", a.ID.String()),
		zap.String("event", "admin_login_success"),
	)
	s.audit.Record(ctx, auditUC.Entry{
		Action:     domainAudit.ActionAdminLoginSuccess,
		ActorID:    &a.ID,
		ActorKind:  domainAudit.ActorAdmin,
		TargetKind: domainAudit.TargetAdmin,
		TargetID:   &a.ID,
	})

	return &AdminLoginResponse{Token: token, ExpiresAt: expiresAt, Admin: ToAdminResponse(a)}, nil
}

// VerifySession resolves a bearer token to the current account. The role
// claim is read exactly once here and turned into a typed principal.
func (s *Service) VerifySession(ctx context.Context, bearer string) (identity.Principal, error) {
	claims, err := s.codec.Parse(bearer)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.ErrSessionExpired
		}
		return nil, appErrors.ErrInvalidSession
	}

	switch identity.Role(claims.Role) {
	case identity.RoleAdmin:
		a, err := s.admins.GetByID(ctx, claims.AccountID)
		if errors.Is(err, admin.ErrNotFound) {
			return nil, appErrors.ErrInvalidSession
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load admin: %w", err)
		}
		return identity.AdminPrincipal{Admin: a}, nil

	case identity.RoleConsultant:
		c, err := s.consultants.GetByID(ctx, claims.AccountID)
		if errors.Is(err, consultant.ErrNotFound) {
			return nil, appErrors.ErrInvalidSession
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load consultant: %w", err)
		}
		if err := StatusError(c.Status); err != nil {
			return nil, err
		}
		return identity.ConsultantPrincipal{Consultant: c}, nil
	}

	return nil, appErrors.ErrInvalidSession
}

// SeedAdmin creates the bootstrap admin when it does not exist yet.
func (s *Service) SeedAdmin(ctx context.Context, email, password, displayName string) error {
	email = utils.NormalizeIdentifier(email)
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.admins.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, admin.ErrNotFound) {
		return fmt.Errorf("failed to look up seed admin: %w", err)
	}

	if err := secret.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("seed admin password rejected: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}

	a := &admin.Admin{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         string(identity.RoleAdmin),
	}
	if err := s.admins.Create(ctx, a); err != nil && !errors.Is(err, admin.ErrEmailTaken) {
		return fmt.Errorf("failed to create seed admin: %w", err)
	}

	logger.Info("Seed admin ensured", zap.String("email", email), zap.String("event", "admin_seeded"))
	return nil
}

// StatusError maps a non-active consultant status to its 403 error.
func StatusError(status consultant.Status) error {
	switch status {
	case consultant.StatusActive:
		return nil
	case consultant.StatusPending:
		return appErrors.ErrAccountPending
	case consultant.StatusRejected:
		return appErrors.ErrAccountRejected
	case consultant.StatusSuspended:
		return appErrors.ErrAccountSuspended
	}
	return appErrors.ErrInvalidSession
}
