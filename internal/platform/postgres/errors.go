package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskshare/internal/store"
)

// PostgreSQL error codes
const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
	notNullViolationCode    = "23502"
)

// constraintErrors names the sentinel for constraints whose violation means
// something more specific than a malformed row. A foreign key failure on a
// share usually means the task or user was deleted concurrently.
var constraintErrors = map[string]error{
	"users_email_key":                      store.ErrEmailExists,
	"tasks_owner_id_fkey":                  store.ErrUserNotFound,
	"tasks_parent_task_id_fkey":            store.ErrTaskNotFound,
	"task_shares_task_id_fkey":             store.ErrTaskNotFound,
	"task_shares_owner_id_fkey":            store.ErrUserNotFound,
	"task_shares_shared_with_user_id_fkey": store.ErrUserNotFound,
}

// MapError maps a database error to the matching store sentinel, wrapping the
// original error to preserve context. Unrecognized errors pass through.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	if target, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: %v", target, err)
	}

	switch pgErr.Code {
	case uniqueViolationCode:
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case foreignKeyViolationCode:
		return fmt.Errorf("%w: foreign key violation (%s): %v",
			store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case checkViolationCode:
		return fmt.Errorf("%w: check constraint violation (%s): %v",
			store.ErrInvalidEntity, pgErr.ConstraintName, err)
	case notNullViolationCode:
		return fmt.Errorf("%w: not null violation (%s): %v",
			store.ErrInvalidEntity, pgErr.ColumnName, err)
	}
	return err
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CheckRowsAffected returns notFound when result touched no rows.
// UPDATE and DELETE by primary key use it to detect a missing target.
func CheckRowsAffected(result sql.Result, notFound error) error {
	if result == nil {
		return fmt.Errorf("nil result provided to CheckRowsAffected")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if notFound == nil {
			return store.ErrNotFound
		}
		return notFound
	}
	return nil
}
