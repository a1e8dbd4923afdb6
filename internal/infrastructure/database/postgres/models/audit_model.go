package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLogModel is append only, rows are never updated or deleted
type AuditLogModel struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ActorID      *uuid.UUID        `gorm:"type:uuid;index:idx_audit_logs_actor,priority:1"`
	ActorKind    string            `gorm:"type:varchar(20);not null"`
	Action       string            `gorm:"type:varchar(64);not null;index"`
	TargetKind   *string           `gorm:"type:varchar(20)"`
	TargetID     *uuid.UUID        `gorm:"type:uuid;index:idx_audit_logs_target,priority:1"`
	Details      datatypes.JSONMap `gorm:"type:jsonb"`
	IPAddress    string            `gorm:"type:varchar(64)"`
	UserAgent    string            `gorm:"type:text"`
	RequestID    string            `gorm:"type:varchar(64)"`
	Outcome      string            `gorm:"type:varchar(10);not null"`
	ErrorMessage *string           `gorm:"type:text"`
	CreatedAt    time.Time         `gorm:"not null;index:idx_audit_logs_actor,priority:2;index:idx_audit_logs_target,priority:2"`
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}
