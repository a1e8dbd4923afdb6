package postgres

import (
	"consultant-access/internal/domain/admin"
	"consultant-access/internal/infrastructure/database/postgres/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminRepository struct {
	db *DB
}

func NewAdminRepository(db *DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, a *admin.Admin) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	dbModel := &models.AdminModel{
		ID:           a.ID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		Role:         a.Role,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return admin.ErrEmailTaken
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	return nil
}

func (r *AdminRepository) GetByID(ctx context.Context, id uuid.UUID) (*admin.Admin, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*admin.Admin, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *AdminRepository) first(ctx context.Context, query string, arg interface{}) (*admin.Admin, error) {
	var m models.AdminModel
	err := r.db.DB.WithContext(ctx).Where(query, arg).First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, admin.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	return &admin.Admin{
		ID:           m.ID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}
