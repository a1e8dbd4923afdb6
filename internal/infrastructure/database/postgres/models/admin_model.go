package models

import (
	"time"

	"github.com/google/uuid"
)

// AdminModel represents the database model for Admin
type AdminModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_admins_email"`
	DisplayName  string    `gorm:"type:varchar(255);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (AdminModel) TableName() string {
	return "admins"
}
