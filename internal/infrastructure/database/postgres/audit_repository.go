package postgres

import (
	"consultant-access/internal/domain/audit"
	"consultant-access/internal/infrastructure/database/postgres/models"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditRepository struct {
	db *DB
}

func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, record *audit.Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := r.db.DB.WithContext(ctx).Create(toAuditModel(record)).Error; err != nil {
		return fmt.Errorf("failed to create audit record: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListByActor(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*audit.Record, int64, error) {
	return r.list(ctx, "actor_id = ?", actorID, limit, offset)
}

func (r *AuditRepository) ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]*audit.Record, int64, error) {
	return r.list(ctx, "target_id = ?", targetID, limit, offset)
}

func (r *AuditRepository) list(ctx context.Context, query string, id uuid.UUID, limit, offset int) ([]*audit.Record, int64, error) {
	var dbModels []models.AuditLogModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.AuditLogModel{}).Where(query, id)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit records: %w", err)
	}

	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit records: %w", err)
	}

	records := make([]*audit.Record, len(dbModels))
	for i := range dbModels {
		records[i] = toAuditEntity(&dbModels[i])
	}
	return records, total, nil
}

func toAuditModel(rec *audit.Record) *models.AuditLogModel {
	m := &models.AuditLogModel{
		ID:           rec.ID,
		ActorID:      rec.ActorID,
		ActorKind:    string(rec.ActorKind),
		Action:       string(rec.Action),
		TargetID:     rec.TargetID,
		Details:      datatypes.JSONMap(rec.Details),
		IPAddress:    rec.IPAddress,
		UserAgent:    rec.UserAgent,
		RequestID:    rec.RequestID,
		Outcome:      string(rec.Outcome),
		ErrorMessage: rec.ErrorMessage,
		CreatedAt:    rec.CreatedAt,
	}
	if rec.TargetKind != nil {
		kind := string(*rec.TargetKind)
		m.TargetKind = &kind
	}
	return m
}

func toAuditEntity(m *models.AuditLogModel) *audit.Record {
	rec := &audit.Record{
		ID:           m.ID,
		ActorID:      m.ActorID,
		ActorKind:    audit.ActorKind(m.ActorKind),
		Action:       audit.Action(m.Action),
		TargetID:     m.TargetID,
		Details:      map[string]any(m.Details),
		IPAddress:    m.IPAddress,
		UserAgent:    m.UserAgent,
		RequestID:    m.RequestID,
		Outcome:      audit.Outcome(m.Outcome),
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt,
	}
	if m.TargetKind != nil {
		kind := audit.TargetKind(*m.TargetKind)
		rec.TargetKind = &kind
	}
	return rec
}
