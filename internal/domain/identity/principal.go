package identity

import (
	"context"

	"consultant-access/internal/domain/admin"
	"consultant-access/internal/domain/consultant"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleConsultant Role = "consultant"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleConsultant
}

// Principal is the authenticated account resolved once per request.
// Implementations are AdminPrincipal and ConsultantPrincipal.
type Principal interface {
	AccountID() uuid.UUID
	Role() Role
	DisplayName() string
	principal()
}

type AdminPrincipal struct {
	Admin *admin.Admin
}

func (p AdminPrincipal) AccountID() uuid.UUID { return p.Admin.ID }
func (p AdminPrincipal) Role() Role           { return RoleAdmin }
func (p AdminPrincipal) DisplayName() string  { return p.Admin.Email }
func (AdminPrincipal) principal()             {}

type ConsultantPrincipal struct {
	Consultant *consultant.Consultant
}

func (p ConsultantPrincipal) AccountID() uuid.UUID { return p.Consultant.ID }
func (p ConsultantPrincipal) Role() Role           { return RoleConsultant }
func (p ConsultantPrincipal) DisplayName() string  { return p.Consultant.Username }
func (ConsultantPrincipal) principal()             {}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p != nil
}
