package persistence

import (
	"errors"

	"github.com/estate/backend/internal/domain/leasing"
	"github.com/estate/backend/internal/infrastructure/persistence/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// violation classifies a constraint failure reported by either driver
type violation int

const (
	noViolation violation = iota
	uniqueViolation
	foreignKeyViolation
	checkViolation
)

// Postgres SQLSTATE codes for integrity constraint violations
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// classify reports which constraint err violated and, when the driver says so, its name
func classify(err error) (violation, string) {
	if err == nil {
		return noViolation, ""
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolation, pgErr.ConstraintName
		case pgForeignKeyViolation:
			return foreignKeyViolation, pgErr.ConstraintName
		case pgCheckViolation:
			return checkViolation, pgErr.ConstraintName
		}
		return noViolation, ""
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return uniqueViolation, ""
		case sqlite3.ErrConstraintForeignKey:
			return foreignKeyViolation, ""
		case sqlite3.ErrConstraintCheck:
			return checkViolation, ""
		}
		return noViolation, ""
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return uniqueViolation, ""
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return foreignKeyViolation, ""
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return checkViolation, ""
	}
	return noViolation, ""
}

// translateContractWrite maps constraint failures on a contract insert or
// update to domain errors. Anything else is returned unchanged.
func translateContractWrite(err error) error {
	kind, constraint := classify(err)
	switch kind {
	case uniqueViolation:
		if constraint == "" || constraint == models.ActiveContractIndex {
			return leasing.ErrActiveContractConflict
		}
	case foreignKeyViolation:
		return leasing.ErrPropertyNotFound
	case checkViolation:
		if constraint == "" || constraint == models.ContractDatesCheck {
			return leasing.ErrInvalidDateRange
		}
	}
	return err
}

// isMatchPairConflict reports whether err is the unique (inquiry, property) pair firing
func isMatchPairConflict(err error) bool {
	kind, constraint := classify(err)
	return kind == uniqueViolation && (constraint == "" || constraint == models.MatchPairIndex)
}
