package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ConsultantModel represents the database model for Consultant
type ConsultantModel struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Username      string         `gorm:"type:varchar(50);not null;uniqueIndex:idx_consultants_username"`
	Email         string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_consultants_email"`
	FullName      string         `gorm:"type:varchar(255);not null"`
	Phone         *string        `gorm:"type:varchar(20)"`
	AgencyName    *string        `gorm:"type:varchar(255)"`
	LicenseNumber *string        `gorm:"type:varchar(100)"`
	Regions       pq.StringArray `gorm:"type:text[]"`
	PasswordHash  *string        `gorm:"type:varchar(255)"`

	CanCreateProfile bool `gorm:"column:can_create_profile;not null"`
	CanEditProfile   bool `gorm:"column:can_edit_profile;not null"`
	CanViewProfile   bool `gorm:"column:can_view_profile;not null"`
	CanDeleteProfile bool `gorm:"column:can_delete_profile;not null"`

	Status          string     `gorm:"type:varchar(20);not null;index;check:chk_consultants_status,status IN ('PENDING','ACTIVE','REJECTED','SUSPENDED')"`
	CreatedBy       *uuid.UUID `gorm:"type:uuid"`
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time `gorm:"type:timestamptz"`
	RejectedReason  *string    `gorm:"type:text"`
	RejectedAt      *time.Time `gorm:"type:timestamptz"`
	SuspendedBy     *uuid.UUID `gorm:"type:uuid"`
	SuspendedAt     *time.Time `gorm:"type:timestamptz"`
	SuspendedReason *string    `gorm:"type:text"`

	PasswordResetToken   *string    `gorm:"type:varchar(64);index"`
	PasswordResetExpires *time.Time `gorm:"type:timestamptz"`
	LoginAttempts        int        `gorm:"type:integer;not null"`
	LockUntil            *time.Time `gorm:"type:timestamptz"`
	LastLogin            *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (ConsultantModel) TableName() string {
	return "consultants"
}
