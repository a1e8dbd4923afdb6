package authz

import (
	"context"
	"errors"
	"testing"

	"consultant-access/internal/domain/admin"
	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/domain/identity"
	"consultant-access/internal/mocks"
	appErrors "consultant-access/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func consultantPrincipal(perms consultant.Permissions) identity.ConsultantPrincipal {
	return identity.ConsultantPrincipal{Consultant: &consultant.Consultant{
		ID:          uuid.New(),
		Username:    "broker1",
		Status:      consultant.StatusActive,
		Permissions: perms,
	}}
}

func TestRequireRole(t *testing.T) {
	guard := NewGuard(nil)
	adminP := identity.AdminPrincipal{Admin: &admin.Admin{ID: uuid.New(), Email: "root@example.com"}}
	consultantP := consultantPrincipal(consultant.DefaultPermissions())

	assert.NoError(t, guard.RequireRole(adminP, identity.RoleAdmin))
	assert.NoError(t, guard.RequireRole(consultantP, identity.RoleAdmin, identity.RoleConsultant))
	assert.ErrorIs(t, guard.RequireRole(consultantP, identity.RoleAdmin), appErrors.ErrForbiddenRole)
	assert.ErrorIs(t, guard.RequireRole(nil, identity.RoleAdmin), appErrors.ErrInvalidSession)
}

func TestRequirePermissionViewOnlyConsultant(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPermissionSource(ctrl)
	guard := NewGuard(source)
	p := consultantPrincipal(consultant.DefaultPermissions())

	source.EXPECT().CurrentPermissions(gomock.Any(), p.AccountID()).
		Return(consultant.DefaultPermissions(), nil).Times(4)

	assert.NoError(t, guard.RequirePermission(context.Background(), p, consultant.CapabilityViewProfile))
	for _, capability := range []consultant.Capability{
		consultant.CapabilityCreateProfile,
		consultant.CapabilityEditProfile,
		consultant.CapabilityDeleteProfile,
	} {
		err := guard.RequirePermission(context.Background(), p, capability)
		require.ErrorIs(t, err, appErrors.ErrPermissionDenied)

		appErr, _ := appErrors.As(err)
		assert.Equal(t, string(capability), appErr.Details["capability"])
	}
}

func TestRequirePermissionUsesStoredFlags(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPermissionSource(ctrl)
	guard := NewGuard(source)

	// The session snapshot still says view-only, the store has been updated.
	p := consultantPrincipal(consultant.DefaultPermissions())
	source.EXPECT().CurrentPermissions(gomock.Any(), p.AccountID()).
		Return(consultant.Permissions{ViewProfile: true, DeleteProfile: true}, nil)

	assert.NoError(t, guard.RequirePermission(context.Background(), p, consultant.CapabilityDeleteProfile))
}

func TestRequirePermissionAdminBypass(t *testing.T) {
	ctrl := gomock.NewController(t)
	guard := NewGuard(mocks.NewMockPermissionSource(ctrl))
	adminP := identity.AdminPrincipal{Admin: &admin.Admin{ID: uuid.New()}}

	assert.NoError(t, guard.RequirePermission(context.Background(), adminP, consultant.CapabilityDeleteProfile))
}

func TestRequirePermissionSourceErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockPermissionSource(ctrl)
	guard := NewGuard(source)
	p := consultantPrincipal(consultant.DefaultPermissions())

	source.EXPECT().CurrentPermissions(gomock.Any(), gomock.Any()).Return(consultant.Permissions{}, appErrors.NotFound("consultant"))
	assert.ErrorIs(t, guard.RequirePermission(context.Background(), p, consultant.CapabilityViewProfile), appErrors.ErrInvalidSession)

	source.EXPECT().CurrentPermissions(gomock.Any(), gomock.Any()).Return(consultant.Permissions{}, errors.New("db down"))
	err := guard.RequirePermission(context.Background(), p, consultant.CapabilityViewProfile)
	require.Error(t, err)
	_, isAppErr := appErrors.As(err)
	assert.False(t, isAppErr)
}
