package authz

import (
	"context"
	"fmt"

	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/domain/identity"
	"consultant-access/internal/logger"
	appErrors "consultant-access/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../../mocks/mock_permission_source.go -package=mocks consultant-access/internal/usecase/authz PermissionSource

// PermissionSource returns the persisted capability flags of a consultant.
type PermissionSource interface {
	CurrentPermissions(ctx context.Context, id uuid.UUID) (consultant.Permissions, error)
}

// Guard enforces role and capability checks on a resolved principal.
type Guard struct {
	permissions PermissionSource
}

func NewGuard(permissions PermissionSource) *Guard {
	return &Guard{permissions: permissions}
}

// RequireRole fails with ForbiddenRole unless the principal holds one of roles.
func (g *Guard) RequireRole(p identity.Principal, roles ...identity.Role) error {
	if p == nil {
		return appErrors.ErrInvalidSession
	}
	for _, role := range roles {
		if p.Role() == role {
			return nil
		}
	}

	logger.Warn("Role check failed",
		zap.String("account_id", p.AccountID().String()),
		zap.String("role", string(p.Role())),
		zap.Any("required", roles),
		zap.String("event", "forbidden_role"),
	)
	return appErrors.ErrForbiddenRole
}

// RequirePermission checks a consultant capability against the current
// stored flags rather than anything captured when the session was issued.
// Admins are not subject to consultant capabilities.
func (g *Guard) RequirePermission(ctx context.Context, p identity.Principal, capability consultant.Capability) error {
	switch principal := p.(type) {
	case identity.AdminPrincipal:
		return nil
	case identity.ConsultantPrincipal:
		perms, err := g.permissions.CurrentPermissions(ctx, principal.AccountID())
		if err != nil {
			if appErr, ok := appErrors.As(err); ok && appErr.Kind == appErrors.KindNotFound {
				return appErrors.ErrInvalidSession
			}
			return fmt.Errorf("failed to load permissions: %w", err)
		}
		if perms.Allows(capability) {
			return nil
		}

		logger.Warn("Permission check failed",
			zap.String("consultant_id", principal.AccountID().String()),
			zap.String("capability", string(capability)),
			zap.String("event", "permission_denied"),
		)
		return appErrors.PermissionDenied(string(capability))
	}

	return appErrors.ErrInvalidSession
}
