package audit

import (
	"context"
	"fmt"
	"time"

	domainAudit "consultant-access/internal/domain/audit"
	"consultant-access/internal/domain/identity"
	"consultant-access/internal/logger"
	"consultant-access/pkg/pagination"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is one event to record. Request metadata is taken from the context.
type Entry struct {
	Action     domainAudit.Action
	ActorID    *uuid.UUID
	ActorKind  domainAudit.ActorKind
	TargetKind domainAudit.TargetKind
	TargetID   *uuid.UUID
	Details    map[string]any
	Err        error
}

// Recorder writes audit records on a best-effort basis and serves the admin queries.
type Recorder struct {
	repo domainAudit.Repository
	now  func() time.Time
}

func NewRecorder(repo domainAudit.Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record never fails the caller. A write error is logged and dropped.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	meta := identity.RequestMetaFromContext(ctx)

	record := &domainAudit.Record{
		ID:        uuid.New(),
		ActorID:   e.ActorID,
		ActorKind: e.ActorKind,
		Action:    e.Action,
		TargetID:  e.TargetID,
		Details:   e.Details,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		RequestID: meta.RequestID,
		Outcome:   domainAudit.OutcomeSuccess,
		CreatedAt: r.now(),
	}
	if record.ActorKind == "" {
		record.ActorKind = domainAudit.ActorAnonymous
	}
	if e.TargetKind != "" {
		kind := e.TargetKind
		record.TargetKind = &kind
	}
	if e.Err != nil {
		msg := e.Err.Error()
		record.Outcome = domainAudit.OutcomeFailure
		record.ErrorMessage = &msg
	}

	if err := r.repo.Create(ctx, record); err != nil {
		logger.WithRequestID(meta.RequestID).Error("Failed to write audit record",
			zap.String("action", string(e.Action)),
			zap.Error(err),
			zap.String("event", "audit_write_failed"),
		)
	}
}

// ByAdmin is the entry shape for admin actions on a consultant.
func ByAdmin(action domainAudit.Action, adminID, consultantID uuid.UUID, details map[string]any) Entry {
	return Entry{
		Action:     action,
		ActorID:    &adminID,
		ActorKind:  domainAudit.ActorAdmin,
		TargetKind: domainAudit.TargetConsultant,
		TargetID:   &consultantID,
		Details:    details,
	}
}

// ByConsultant is the entry shape for a consultant acting on its own account.
func ByConsultant(action domainAudit.Action, consultantID uuid.UUID, details map[string]any) Entry {
	return Entry{
		Action:     action,
		ActorID:    &consultantID,
		ActorKind:  domainAudit.ActorConsultant,
		TargetKind: domainAudit.TargetConsultant,
		TargetID:   &consultantID,
		Details:    details,
	}
}

// Anonymous is used when the caller could not be resolved to an account.
func Anonymous(action domainAudit.Action, details map[string]any, err error) Entry {
	return Entry{
		Action:    action,
		ActorKind: domainAudit.ActorAnonymous,
		Details:   details,
		Err:       err,
	}
}

func (r *Recorder) ListByActor(ctx context.Context, actorID uuid.UUID, params pagination.Params) ([]*domainAudit.Record, pagination.Meta, error) {
	records, total, err := r.repo.ListByActor(ctx, actorID, params.Limit, params.Offset)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list audit records by actor: %w", err)
	}
	return records, pagination.GetMeta(params, total), nil
}

func (r *Recorder) ListByTarget(ctx context.Context, targetID uuid.UUID, params pagination.Params) ([]*domainAudit.Record, pagination.Meta, error) {
	records, total, err := r.repo.ListByTarget(ctx, targetID, params.Limit, params.Offset)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("failed to list audit records by target: %w", err)
	}
	return records, pagination.GetMeta(params, total), nil
}
