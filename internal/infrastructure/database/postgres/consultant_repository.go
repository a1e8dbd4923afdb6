package postgres

import (
	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/infrastructure/database/postgres/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ConsultantRepository struct {
	db *DB
}

func NewConsultantRepository(db *DB) *ConsultantRepository {
	return &ConsultantRepository{db: db}
}

func (r *ConsultantRepository) Create(ctx context.Context, c *consultant.Consultant) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = consultant.StatusPending
	}

	dbModel := toConsultantModel(c)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			return &consultant.ConflictError{Field: conflictField(constraint)}
		}
		return fmt.Errorf("failed to create consultant: %w", err)
	}

	return nil
}

func (r *ConsultantRepository) GetByID(ctx context.Context, id uuid.UUID) (*consultant.Consultant, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByLogin resolves a username or an email, both stored lowercase.
func (r *ConsultantRepository) GetByLogin(ctx context.Context, identifier string) (*consultant.Consultant, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	return r.first(ctx, "username = ? OR email = ?", identifier, identifier)
}

func (r *ConsultantRepository) GetByResetTokenDigest(ctx context.Context, digest string) (*consultant.Consultant, error) {
	if digest == "" {
		return nil, consultant.ErrNotFound
	}
	return r.first(ctx, "password_reset_token = ?", digest)
}

func (r *ConsultantRepository) first(ctx context.Context, query string, args ...interface{}) (*consultant.Consultant, error) {
	var dbModel models.ConsultantModel
	err := r.db.DB.WithContext(ctx).
		Where(query, args...).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, consultant.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultant: %w", err)
	}

	return toConsultantEntity(&dbModel), nil
}

func (r *ConsultantRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", strings.ToLower(strings.TrimSpace(username)))
}

func (r *ConsultantRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *ConsultantRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where(query, arg).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check consultant existence: %w", err)
	}
	return count > 0, nil
}

func (r *ConsultantRepository) List(ctx context.Context, filter consultant.Filter) ([]*consultant.Consultant, int64, error) {
	var dbModels []models.ConsultantModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.ConsultantModel{})

	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.Search != "" {
		search := "%" + escapeLike(filter.Search) + "%"
		db = db.Where("username ILIKE ? OR email ILIKE ? OR full_name ILIKE ? OR agency_name ILIKE ?",
			search, search, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count consultants: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	err := db.Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list consultants: %w", err)
	}

	consultants := make([]*consultant.Consultant, len(dbModels))
	for i := range dbModels {
		consultants[i] = toConsultantEntity(&dbModels[i])
	}

	return consultants, total, nil
}

// TransitionStatus moves a consultant out of `from` in one conditional update.
// A zero row count means the record is missing or another writer got there first.
func (r *ConsultantRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from consultant.Status, change consultant.StatusChange) (*consultant.Consultant, error) {
	updates := map[string]interface{}{
		"status":     string(change.To),
		"updated_at": change.At,
	}

	switch {
	case from == consultant.StatusPending && change.To == consultant.StatusActive:
		updates["approved_by"] = change.ActorID
		updates["approved_at"] = change.At
		updates["rejected_reason"] = nil
		updates["rejected_at"] = nil
		updates["password_reset_token"] = change.ResetTokenDigest
		updates["password_reset_expires"] = change.ResetTokenExpires
	case change.To == consultant.StatusRejected:
		updates["rejected_reason"] = change.Reason
		updates["rejected_at"] = change.At
	case change.To == consultant.StatusSuspended:
		updates["suspended_by"] = change.ActorID
		updates["suspended_at"] = change.At
		updates["suspended_reason"] = change.Reason
	case from == consultant.StatusSuspended && change.To == consultant.StatusActive:
		updates["suspended_by"] = nil
		updates["suspended_at"] = nil
		updates["suspended_reason"] = nil
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update consultant status: %w", result.Error)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, &consultant.StaleStatusError{Expected: from, Current: current.Status}
	}

	return current, nil
}

// UpdatePermissions is a compare-and-set on the four capability columns. A
// zero row count on an existing record means another admin changed them.
func (r *ConsultantRepository) UpdatePermissions(ctx context.Context, id uuid.UUID, expected, next consultant.Permissions) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where("id = ? AND can_create_profile = ? AND can_edit_profile = ? AND can_view_profile = ? AND can_delete_profile = ?",
			id, expected.CreateProfile, expected.EditProfile, expected.ViewProfile, expected.DeleteProfile).
		Updates(map[string]interface{}{
			"can_create_profile": next.CreateProfile,
			"can_edit_profile":   next.EditProfile,
			"can_view_profile":   next.ViewProfile,
			"can_delete_profile": next.DeleteProfile,
			"updated_at":         time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update consultant permissions: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return consultant.ErrPermissionsStale
	}

	return nil
}

func (r *ConsultantRepository) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_reset_token":   digest,
			"password_reset_expires": expires,
			"updated_at":             time.Now(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return consultant.ErrNotFound
	}

	return nil
}

// ConsumeResetToken writes the new hash and clears the token only if the
// digest still matches, the account is active and the token has not expired.
func (r *ConsultantRepository) ConsumeResetToken(ctx context.Context, id uuid.UUID, digest, passwordHash string, now time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where("id = ? AND password_reset_token = ? AND status = ? AND password_reset_expires > ?",
			id, digest, string(consultant.StatusActive), now).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
			"updated_at":             now,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to consume reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return consultant.ErrResetTokenInvalid
	}

	return nil
}

func (r *ConsultantRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where("password_reset_token IS NOT NULL AND password_reset_expires <= ?", now).
		Updates(map[string]interface{}{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
			"updated_at":             now,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UpdateLockout is a compare-and-set on (login_attempts, lock_until).
func (r *ConsultantRepository) UpdateLockout(ctx context.Context, id uuid.UUID, expected, next consultant.LockoutState) error {
	db := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where("id = ? AND login_attempts = ?", id, expected.Attempts)

	if expected.LockUntil == nil {
		db = db.Where("lock_until IS NULL")
	} else {
		db = db.Where("lock_until = ?", *expected.LockUntil)
	}

	result := db.Updates(map[string]interface{}{
		"login_attempts": next.Attempts,
		"lock_until":     next.LockUntil,
		"updated_at":     time.Now(),
	})

	if result.Error != nil {
		return fmt.Errorf("failed to update lockout state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return consultant.ErrLockoutStale
	}

	return nil
}

func (r *ConsultantRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.ConsultantModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"login_attempts": 0,
			"lock_until":     nil,
			"last_login":     at,
			"updated_at":     at,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to record login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return consultant.ErrNotFound
	}

	return nil
}

func toConsultantModel(c *consultant.Consultant) *models.ConsultantModel {
	return &models.ConsultantModel{
		ID:                   c.ID,
		Username:             c.Username,
		Email:                c.Email,
		FullName:             c.FullName,
		Phone:                c.Phone,
		AgencyName:           c.AgencyName,
		LicenseNumber:        c.LicenseNumber,
		Regions:              pq.StringArray(c.Regions),
		PasswordHash:         c.PasswordHash,
		CanCreateProfile:     c.Permissions.CreateProfile,
		CanEditProfile:       c.Permissions.EditProfile,
		CanViewProfile:       c.Permissions.ViewProfile,
		CanDeleteProfile:     c.Permissions.DeleteProfile,
		Status:               string(c.Status),
		CreatedBy:            c.CreatedBy,
		ApprovedBy:           c.ApprovedBy,
		ApprovedAt:           c.ApprovedAt,
		RejectedReason:       c.RejectedReason,
		RejectedAt:           c.RejectedAt,
		SuspendedBy:          c.SuspendedBy,
		SuspendedAt:          c.SuspendedAt,
		SuspendedReason:      c.SuspendedReason,
		PasswordResetToken:   c.PasswordResetToken,
		PasswordResetExpires: c.PasswordResetExpires,
		LoginAttempts:        c.LoginAttempts,
		LockUntil:            c.LockUntil,
		LastLogin:            c.LastLogin,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func toConsultantEntity(m *models.ConsultantModel) *consultant.Consultant {
	return &consultant.Consultant{
		ID:            m.ID,
		Username:      m.Username,
		Email:         m.Email,
		FullName:      m.FullName,
		Phone:         m.Phone,
		AgencyName:    m.AgencyName,
		LicenseNumber: m.LicenseNumber,
		Regions:       []string(m.Regions),
		PasswordHash:  m.PasswordHash,
		Permissions: consultant.Permissions{
			CreateProfile: m.CanCreateProfile,
			EditProfile:   m.CanEditProfile,
			ViewProfile:   m.CanViewProfile,
			DeleteProfile: m.CanDeleteProfile,
		},
		Status:               consultant.Status(m.Status),
		CreatedBy:            m.CreatedBy,
		ApprovedBy:           m.ApprovedBy,
		ApprovedAt:           m.ApprovedAt,
		RejectedReason:       m.RejectedReason,
		RejectedAt:           m.RejectedAt,
		SuspendedBy:          m.SuspendedBy,
		SuspendedAt:          m.SuspendedAt,
		SuspendedReason:      m.SuspendedReason,
		PasswordResetToken:   m.PasswordResetToken,
		PasswordResetExpires: m.PasswordResetExpires,
		LoginAttempts:        m.LoginAttempts,
		LockUntil:            m.LockUntil,
		LastLogin:            m.LastLogin,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes wildcards in user input match literally. Backslash is the
// default LIKE escape character in PostgreSQL.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
