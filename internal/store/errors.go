package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when an invoice id is malformed or matches no row.
var ErrNotFound = errors.New("invoice not found")

// foreignKeyViolation is the PostgreSQL SQLSTATE for foreign_key_violation.
const foreignKeyViolation = "23503"

// PersistenceError wraps a failed database statement.
type PersistenceError struct {
	// Op is the store operation that failed (e.g. "create", "update").
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsForeignKeyViolation reports whether err was caused by an unknown referenced row
// (for example an unknown customer id).
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == foreignKeyViolation
	}
	return false
}
