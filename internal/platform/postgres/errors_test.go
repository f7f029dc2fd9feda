package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskshare/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	plain := errors.New("connection reset by peer")

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "no rows", err: sql.ErrNoRows, expected: store.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: uniqueViolationCode}, expected: store.ErrDuplicate},
		{
			name:     "unknown foreign key violation",
			err:      &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "some_other_fkey"},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "share of a deleted task",
			err:      &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "task_shares_task_id_fkey"},
			expected: store.ErrTaskNotFound,
		},
		{
			name: "share with a deleted user",
			err: &pgconn.PgError{
				Code:           foreignKeyViolationCode,
				ConstraintName: "task_shares_shared_with_user_id_fkey",
			},
			expected: store.ErrUserNotFound,
		},
		{
			name:     "task for a missing owner",
			err:      &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "tasks_owner_id_fkey"},
			expected: store.ErrUserNotFound,
		},
		{
			name:     "duplicate email",
			err:      &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "users_email_key"},
			expected: store.ErrEmailExists,
		},
		{
			name:     "check violation",
			err:      &pgconn.PgError{Code: checkViolationCode, ConstraintName: "tasks_priority_check"},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "not null violation",
			err:      &pgconn.PgError{Code: notNullViolationCode, ColumnName: "title"},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "wrapped pg error",
			err:      fmt.Errorf("exec: %w", &pgconn.PgError{Code: uniqueViolationCode}),
			expected: store.ErrDuplicate,
		},
		{name: "unmapped error passes through", err: plain, expected: plain},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, MapError(tc.err), tc.expected)
		})
	}

	assert.NoError(t, MapError(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrTaskNotFound))
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrTaskNotFound), store.ErrTaskNotFound)
	assert.ErrorIs(t, CheckRowsAffected(sqlmock.NewResult(0, 0), nil), store.ErrNotFound)
	assert.Error(t, CheckRowsAffected(nil, nil))
	assert.Error(t, CheckRowsAffected(sqlmock.NewErrorResult(errors.New("driver")), nil))
}
