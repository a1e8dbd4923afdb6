package postgres

import (
	"context"
	"testing"
	"time"

	"consultant-access/internal/domain/admin"
	"consultant-access/internal/domain/audit"
	"consultant-access/internal/domain/consultant"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)

	return &DB{DB: gdb}, mock
}

var consultantColumns = []string{
	"id", "username", "email", "full_name", "regions", "password_hash",
	"can_create_profile", "can_edit_profile", "can_view_profile", "can_delete_profile",
	"status", "login_attempts", "created_at", "updated_at",
}

func consultantRow(id uuid.UUID, status consultant.Status) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(consultantColumns).AddRow(
		id.String(), "broker1", "b1@agency.com", "Broker One", "{Lagos,Abuja}", nil,
		false, false, true, false,
		string(status), 0, now, now,
	)
}

func TestConsultantRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)

	mock.ExpectExec(`INSERT INTO "consultants"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &consultant.Consultant{
		Username:    "broker1",
		Email:       "b1@agency.com",
		FullName:    "Broker One",
		Permissions: consultant.DefaultPermissions(),
	}
	require.NoError(t, repo.Create(context.Background(), c))

	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, consultant.StatusPending, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_CreateConflictNamesField(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)

	mock.ExpectExec(`INSERT INTO "consultants"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_consultants_email"})

	err := repo.Create(context.Background(), &consultant.Consultant{Username: "broker1", Email: "b1@agency.com"})

	var conflict *consultant.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)
}

func TestConsultantRepository_GetByLogin(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE .*username = \$1 OR email = \$2`).
		WillReturnRows(consultantRow(id, consultant.StatusActive))

	c, err := repo.GetByLogin(context.Background(), "  Bob@Example.com ")
	require.NoError(t, err)

	assert.Equal(t, id, c.ID)
	assert.Equal(t, []string{"Lagos", "Abuja"}, c.Regions)
	assert.True(t, c.Permissions.ViewProfile)
	assert.False(t, c.HasPassword())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(consultantColumns))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, consultant.ErrNotFound)
}

func TestConsultantRepository_TransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	id := uuid.New()
	digest := "abc123"
	expires := time.Now().Add(24 * time.Hour)

	mock.ExpectExec(`UPDATE "consultants" SET .*"password_reset_token".* WHERE id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE id = \$1`).
		WillReturnRows(consultantRow(id, consultant.StatusActive))

	c, err := repo.TransitionStatus(context.Background(), id, consultant.StatusPending, consultant.StatusChange{
		To:                consultant.StatusActive,
		ActorID:           uuid.New(),
		At:                time.Now(),
		ResetTokenDigest:  &digest,
		ResetTokenExpires: &expires,
	})
	require.NoError(t, err)
	assert.Equal(t, consultant.StatusActive, c.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_TransitionStatusLosesRace(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "consultants" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE id = \$1`).
		WillReturnRows(consultantRow(id, consultant.StatusActive))

	_, err := repo.TransitionStatus(context.Background(), id, consultant.StatusPending, consultant.StatusChange{
		To: consultant.StatusActive,
		At: time.Now(),
	})

	var stale *consultant.StaleStatusError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, consultant.StatusActive, stale.Current)
	assert.Equal(t, consultant.StatusPending, stale.Expected)
}

func TestConsultantRepository_ConsumeResetTokenSingleUse(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "consultants" SET .* WHERE id = \$\d+ AND password_reset_token = \$\d+ AND status = \$\d+ AND password_reset_expires > \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "consultants" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.ConsumeResetToken(context.Background(), id, "digest", "hash", time.Now()))
	err := repo.ConsumeResetToken(context.Background(), id, "digest", "hash", time.Now())
	assert.ErrorIs(t, err, consultant.ErrResetTokenInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_UpdateLockoutCompareAndSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	lockUntil := time.Now().Add(2 * time.Hour)

	mock.ExpectExec(`UPDATE "consultants" SET .* WHERE .*login_attempts = \$\d+.*lock_until IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateLockout(context.Background(), uuid.New(),
		consultant.LockoutState{Attempts: 4},
		consultant.LockoutState{Attempts: 5, LockUntil: &lockUntil},
	)
	assert.ErrorIs(t, err, consultant.ErrLockoutStale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_UpdatePermissionsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)

	mock.ExpectExec(`UPDATE "consultants" SET .*"can_delete_profile"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(consultantColumns))

	err := repo.UpdatePermissions(context.Background(), uuid.New(),
		consultant.DefaultPermissions(), consultant.Permissions{ViewProfile: true, DeleteProfile: true})
	assert.ErrorIs(t, err, consultant.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_UpdatePermissionsCompareAndSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "consultants" SET .* WHERE id = \$\d+ AND can_create_profile = \$\d+ AND can_edit_profile = \$\d+ AND can_view_profile = \$\d+ AND can_delete_profile = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE id = \$1`).
		WillReturnRows(consultantRow(id, consultant.StatusActive))

	err := repo.UpdatePermissions(context.Background(), id,
		consultant.DefaultPermissions(), consultant.Permissions{ViewProfile: true, DeleteProfile: true})
	assert.ErrorIs(t, err, consultant.ErrPermissionsStale)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_ListFiltersByStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	status := consultant.StatusPending

	mock.ExpectQuery(`SELECT count\(\*\) FROM "consultants" WHERE status = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE status = \$1 ORDER BY created_at DESC`).
		WillReturnRows(consultantRow(uuid.New(), consultant.StatusPending))

	items, total, err := repo.List(context.Background(), consultant.Filter{Status: &status, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, consultant.StatusPending, items[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_ListEscapesSearchWildcards(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)
	pattern := `%a\_b\%%`

	mock.ExpectQuery(`SELECT count\(\*\) FROM "consultants" WHERE .*ILIKE`).
		WithArgs(pattern, pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "consultants" WHERE .*ILIKE`).
		WillReturnRows(sqlmock.NewRows(consultantColumns))

	_, total, err := repo.List(context.Background(), consultant.Filter{Search: "a_b%", Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepository_GetByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAdminRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "admins" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByEmail(context.Background(), "Root@Example.com")
	assert.ErrorIs(t, err, admin.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_CreateAndList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	actorID := uuid.New()
	targetKind := audit.TargetConsultant

	mock.ExpectExec(`INSERT INTO "audit_logs"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &audit.Record{
		ActorID:    &actorID,
		ActorKind:  audit.ActorAdmin,
		Action:     audit.ActionConsultantApproved,
		TargetKind: &targetKind,
		Details:    map[string]any{"notify": false},
		Outcome:    audit.OutcomeSuccess,
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE actor_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE actor_id = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "actor_kind", "action", "target_kind", "details", "outcome", "created_at"}).
			AddRow(uuid.New().String(), actorID.String(), "ADMIN", "CONSULTANT_APPROVED", "CONSULTANT", []byte(`{"notify":false}`), "SUCCESS", time.Now()))

	records, total, err := repo.ListByActor(context.Background(), actorID, 20, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionConsultantApproved, records[0].Action)
	assert.Equal(t, false, records[0].Details["notify"])
	require.NotNil(t, records[0].TargetKind)
	assert.Equal(t, audit.TargetConsultant, *records[0].TargetKind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultantRepository_ClearExpiredResetTokens(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultantRepository(db)

	mock.ExpectExec(`UPDATE "consultants" SET .* WHERE password_reset_token IS NOT NULL AND password_reset_expires <= \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	cleared, err := repo.ClearExpiredResetTokens(context.Background(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 3, cleared)
	assert.NoError(t, mock.ExpectationsWereMet())
}
