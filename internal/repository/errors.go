package repository

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a single entity lookup finds no row
	ErrNotFound = errors.New("not found")
	// ErrStoreNotReady is wrapped around errors caused by a missing table,
	// typically before migrations have been applied
	ErrStoreNotReady = errors.New("store not ready")
)

// pq error code for undefined_table
const pqUndefinedTable = "42P01"

// pq error code for unique_violation
const pqUniqueViolation = "23505"

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUndefinedTable
}

// IsUniqueViolation reports whether err was raised by a unique constraint
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// classify maps driver errors onto the package sentinels
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case isUndefinedTable(err):
		return errors.Join(ErrStoreNotReady, err)
	default:
		return err
	}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("Failed to close rows", "error", err)
	}
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("Failed to rollback transaction", "error", err)
	}
}
