package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/infrastructure/config"
	"github.com/estate/backend/internal/infrastructure/persistence/models"
	"github.com/estate/backend/internal/infrastructure/persistence/storetest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newSQLiteStore opens a fresh file-backed SQLite database with the leasing schema
func newSQLiteStore(t *testing.T) leasing.RecordStore {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "estate.db"),
	}
	db, err := NewDatabase(&cfg, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate(context.Background()))
	return NewGormRecordStore(db.DB)
}

func leaseDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGormRecordStore_SQLite(t *testing.T) {
	storetest.Run(t, newSQLiteStore)
}

func TestGormRecordStore_SQLiteCheckConstraint(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	property := storetest.SeedProperty(t, store)

	tenant, err := leasing.NewTenant(leasing.TenantDraft{Name: "Zeynep Arslan"})
	require.NoError(t, err)
	contract, err := leasing.NewContract(tenant.ID, leasing.LeaseDraft{
		PropertyID: property.ID,
		StartDate:  leaseDay(2024, 1, 1),
		EndDate:    leaseDay(2025, 1, 1),
		RentAmount: decimal.NewFromInt(15000),
	}, 60)
	require.NoError(t, err)

	// Bypass the domain checks so the database constraint is what fails.
	contract.EndDate = contract.StartDate
	err = store.CreateTenantAndContract(ctx, tenant, contract)
	assert.ErrorIs(t, err, leasing.ErrInvalidDateRange)

	_, err = store.Tenants().FindByID(ctx, tenant.ID)
	assert.ErrorIs(t, err, leasing.ErrTenantNotFound)
}

func TestNewDatabase_UnsupportedDriver(t *testing.T) {
	_, err := NewDatabase(&config.DatabaseConfig{Driver: "oracle"}, Options{})
	assert.ErrorContains(t, err, "unsupported database driver")
}

// newMockContractRepository wires the contract repository to a mocked postgres connection
func newMockContractRepository(t *testing.T) (*GormContractRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &GormContractRepository{db: gormDB}, mock, mockDB
}

func TestGormContractRepository_UpdateStatusPostgresErrors(t *testing.T) {
	t.Run("active index violation becomes a conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		mock.ExpectExec(`UPDATE "contracts" SET`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: models.ActiveContractIndex})

		err := repo.UpdateStatus(context.Background(), id, leasing.ContractStatusActive)
		assert.ErrorIs(t, err, leasing.ErrActiveContractConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other unique violations pass through", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "contracts" SET`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "contracts_pkey"})

		err := repo.UpdateStatus(context.Background(), uuid.New(), leasing.ContractStatusActive)
		var pgErr *pgconn.PgError
		assert.ErrorAs(t, err, &pgErr)
		assert.NotErrorIs(t, err, leasing.ErrActiveContractConflict)
	})

	t.Run("no rows means not found", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "contracts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetDocumentPath(context.Background(), uuid.New(), "contracts/a.pdf")
		assert.ErrorIs(t, err, leasing.ErrContractNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection errors are returned as is", func(t *testing.T) {
		repo, mock, mockDB := newMockContractRepository(t)
		defer mockDB.Close()

		boom := errors.New("connection reset by peer")
		mock.ExpectExec(`UPDATE "contracts" SET`).WillReturnError(boom)

		err := repo.SetReminderContacted(context.Background(), uuid.New(), true)
		assert.ErrorIs(t, err, boom)
	})
}

func TestTranslateContractWrite(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"pg unique on active index", &pgconn.PgError{Code: "23505", ConstraintName: models.ActiveContractIndex}, leasing.ErrActiveContractConflict},
		{"pg foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "fk_contracts_property"}, leasing.ErrPropertyNotFound},
		{"pg date check", &pgconn.PgError{Code: "23514", ConstraintName: models.ContractDatesCheck}, leasing.ErrInvalidDateRange},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, leasing.ErrActiveContractConflict},
		{"sqlite check", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}, leasing.ErrInvalidDateRange},
		{"translated duplicate", gorm.ErrDuplicatedKey, leasing.ErrActiveContractConflict},
		{"translated foreign key", gorm.ErrForeignKeyViolated, leasing.ErrPropertyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateContractWrite(tt.err), tt.want)
		})
	}

	assert.NoError(t, translateContractWrite(nil))
	other := &pgconn.PgError{Code: "40001"}
	assert.Same(t, error(other), translateContractWrite(other))
}

func TestIsMatchPairConflict(t *testing.T) {
	assert.True(t, isMatchPairConflict(&pgconn.PgError{Code: "23505", ConstraintName: models.MatchPairIndex}))
	assert.True(t, isMatchPairConflict(gorm.ErrDuplicatedKey))
	assert.False(t, isMatchPairConflict(&pgconn.PgError{Code: "23505", ConstraintName: "matches_pkey"}))
	assert.False(t, isMatchPairConflict(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isMatchPairConflict(errors.New("timeout")))
}
