package sqldb

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ncruces/go-sqlite3"

	"github.com/zjrosen/admingroup/internal/groups/domain"
)

// SQLSTATE codes surfaced on StoreError. SQLite result codes are mapped
// onto the same values.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// storeError wraps a driver error as a *domain.StoreError with its SQLSTATE.
func storeError(op string, err error) error {
	return &domain.StoreError{Op: op, Code: sqlState(err), Err: err}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		return pgErr.Code
	case errors.Is(err, sqlite3.CONSTRAINT_UNIQUE), errors.Is(err, sqlite3.CONSTRAINT_PRIMARYKEY):
		return codeUniqueViolation
	case errors.Is(err, sqlite3.CONSTRAINT_FOREIGNKEY):
		return codeForeignKeyViolation
	case errors.Is(err, sqlite3.BUSY), errors.Is(err, sqlite3.LOCKED):
		return codeSerializationFailure
	default:
		return ""
	}
}

// IsRetryable reports whether err is a serialization failure or deadlock
// that a caller may retry as a whole.
func IsRetryable(err error) bool {
	var se *domain.StoreError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == codeSerializationFailure || se.Code == codeDeadlockDetected
}

// IsConstraintViolation reports whether err came from a unique or foreign key constraint.
func IsConstraintViolation(err error) bool {
	var se *domain.StoreError
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == codeUniqueViolation || se.Code == codeForeignKeyViolation
}
