package audit

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -destination=../../mocks/mock_audit_repository.go -package=mocks -mock_names=Repository=MockAuditRepository consultant-access/internal/domain/audit Repository

// Repository is append only. Lists are newest first.
type Repository interface {
	Create(ctx context.Context, record *Record) error
	ListByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Record, int64, error)
	ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]*Record, int64, error)
}
