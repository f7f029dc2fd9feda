package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/store"
)

const shareColumns = `id, task_id, owner_id, shared_with_user_id, permission, shared_at, updated_at`

// PostgresShareStore implements the store.ShareStore interface
// using a PostgreSQL database as the storage backend.
type PostgresShareStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresShareStore creates a new PostgreSQL implementation of the ShareStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresShareStore(db store.DBTX, logger *slog.Logger) *PostgresShareStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresShareStore{
		db:     db,
		logger: logger.With(slog.String("component", "share_store")),
	}
}

// Ensure PostgresShareStore implements store.ShareStore interface
var _ store.ShareStore = (*PostgresShareStore)(nil)

func scanShare(row rowScanner) (*domain.Share, error) {
	var share domain.Share
	var permission string
	if err := row.Scan(
		&share.ID,
		&share.TaskID,
		&share.OwnerID,
		&share.SharedWithUserID,
		&permission,
		&share.SharedAt,
		&share.UpdatedAt,
	); err != nil {
		return nil, err
	}
	share.Permission = domain.Permission(permission)
	share.SharedAt = share.SharedAt.UTC()
	share.UpdatedAt = share.UpdatedAt.UTC()
	return &share, nil
}

// Upsert implements store.ShareStore.Upsert as a single
// INSERT ... ON CONFLICT statement, so concurrent re-shares of the same
// (task, user) pair converge on one row.
func (s *PostgresShareStore) Upsert(ctx context.Context, share *domain.Share) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO task_shares (` + shareColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (task_id, shared_with_user_id)
		DO UPDATE SET permission = EXCLUDED.permission, updated_at = EXCLUDED.updated_at
		RETURNING ` + shareColumns

	stored, err := scanShare(s.db.QueryRowContext(ctx, query,
		share.ID,
		share.TaskID,
		share.OwnerID,
		share.SharedWithUserID,
		string(share.Permission),
		share.SharedAt.UTC(),
		share.UpdatedAt.UTC(),
	))
	if err != nil {
		log.Error("failed to upsert share",
			slog.String("error", err.Error()),
			slog.String("task_id", share.TaskID.String()),
			slog.String("shared_with_user_id", share.SharedWithUserID.String()))
		return MapError(err)
	}

	*share = *stored
	log.Debug("share upserted",
		slog.String("share_id", share.ID.String()),
		slog.String("task_id", share.TaskID.String()),
		slog.String("permission", string(share.Permission)))
	return nil
}

// Get implements store.ShareStore.Get.
func (s *PostgresShareStore) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Share, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE task_id = $1 AND shared_with_user_id = $2`
	share, err := scanShare(s.db.QueryRowContext(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrShareNotFound
		}
		log.Error("failed to get share",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return share, nil
}

// Delete implements store.ShareStore.Delete. Missing shares are not an error.
func (s *PostgresShareStore) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM task_shares WHERE task_id = $1 AND shared_with_user_id = $2`, taskID, userID)
	if err != nil {
		log.Error("failed to delete share",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()),
			slog.String("user_id", userID.String()))
		return MapError(err)
	}
	return nil
}

// DeleteByTask implements store.ShareStore.DeleteByTask.
func (s *PostgresShareStore) DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM task_shares WHERE task_id = $1`, taskID)
	if err != nil {
		log.Error("failed to delete task shares",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// ListByTask implements store.ShareStore.ListByTask.
func (s *PostgresShareStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE task_id = $1 ORDER BY shared_at, id`
	return s.list(ctx, "list_by_task", query, taskID)
}

// ListSharedWith implements store.ShareStore.ListSharedWith.
func (s *PostgresShareStore) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.Share, error) {
	query := `SELECT ` + shareColumns + ` FROM task_shares WHERE shared_with_user_id = $1 ORDER BY shared_at, id`
	return s.list(ctx, "list_shared_with", query, userID)
}

func (s *PostgresShareStore) list(ctx context.Context, op, query string, arg any) ([]*domain.Share, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		log.Error("failed to query shares",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var shares []*domain.Share
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share: %w", err)
		}
		shares = append(shares, share)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating share rows",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, MapError(err)
	}
	return shares, nil
}
