package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/store"
)

const taskColumns = `
	id, owner_id, title, description, completed, priority, is_recurring,
	recurrence_frequency, recurrence_time, recurrence_day_of_week, recurrence_day_of_month,
	parent_task_id, next_due_date, created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task        domain.Task
		priority    string
		frequency   sql.NullString
		clock       sql.NullString
		dayOfWeek   sql.NullInt16
		dayOfMonth  sql.NullInt16
		parentID    uuid.NullUUID
		nextDueDate sql.NullTime
	)

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&priority,
		&task.IsRecurring,
		&frequency,
		&clock,
		&dayOfWeek,
		&dayOfMonth,
		&parentID,
		&nextDueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	if frequency.Valid {
		rule := &domain.RecurrenceRule{
			Frequency: domain.Frequency(frequency.String),
			Time:      clock.String,
		}
		if dayOfWeek.Valid {
			v := int(dayOfWeek.Int16)
			rule.DayOfWeek = &v
		}
		if dayOfMonth.Valid {
			v := int(dayOfMonth.Int16)
			rule.DayOfMonth = &v
		}
		task.Recurrence = rule
	}
	if parentID.Valid {
		id := parentID.UUID
		task.ParentTaskID = &id
	}
	if nextDueDate.Valid {
		due := nextDueDate.Time.UTC()
		task.NextDueDate = &due
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

// recurrenceArgs flattens an optional rule into nullable column values.
func recurrenceArgs(rule *domain.RecurrenceRule) (frequency, clock, dayOfWeek, dayOfMonth any) {
	if rule == nil {
		return nil, nil, nil, nil
	}
	frequency, clock = string(rule.Frequency), rule.Time
	if rule.DayOfWeek != nil {
		dayOfWeek = int16(*rule.DayOfWeek)
	}
	if rule.DayOfMonth != nil {
		dayOfMonth = int16(*rule.DayOfMonth)
	}
	return frequency, clock, dayOfWeek, dayOfMonth
}

func nullableUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Create implements store.TaskStore.Create.
// Returns validation errors from the domain Task if data is invalid.
// Returns store.ErrInvalidEntity if the owner or parent does not exist.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	frequency, clock, dayOfWeek, dayOfMonth := recurrenceArgs(task.Recurrence)
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		task.IsRecurring,
		frequency,
		clock,
		dayOfWeek,
		dayOfMonth,
		nullableUUID(task.ParentTaskID),
		nullableTime(task.NextDueDate),
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.OwnerID.String()))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()),
		slog.Bool("is_recurring", task.IsRecurring))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`)
}

// GetByIDForUpdate implements store.TaskStore.GetByIDForUpdate.
// The row lock is released when the surrounding transaction ends.
func (s *PostgresTaskStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.get(ctx, id, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`)
}

func (s *PostgresTaskStore) get(ctx context.Context, id uuid.UUID, query string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// Update implements store.TaskStore.Update.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3, priority = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		task.UpdatedAt.UTC(),
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// UpdateNextDueDate implements store.TaskStore.UpdateNextDueDate.
func (s *PostgresTaskStore) UpdateNextDueDate(ctx context.Context, id uuid.UUID, next time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE tasks SET next_due_date = $1, updated_at = $2 WHERE id = $3 AND is_recurring`
	result, err := s.db.ExecContext(ctx, query, next.UTC(), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to advance next due date",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete.
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// ListByOwner implements store.TaskStore.ListByOwner.
func (s *PostgresTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1 ORDER BY created_at DESC, id`
	return s.list(ctx, "list_by_owner", query, ownerID)
}

// ListByIDs implements store.TaskStore.ListByIDs.
func (s *PostgresTaskStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	textIDs := make([]string, len(ids))
	for i, id := range ids {
		textIDs[i] = id.String()
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ANY($1::text[]::uuid[]) ORDER BY created_at DESC, id`
	return s.list(ctx, "list_by_ids", query, textIDs)
}

// ListDueRecurring implements store.TaskStore.ListDueRecurring.
func (s *PostgresTaskStore) ListDueRecurring(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE is_recurring AND next_due_date <= $1
		ORDER BY next_due_date, id
	`
	return s.list(ctx, "list_due_recurring", query, now.UTC())
}

func (s *PostgresTaskStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()),
				slog.String("operation", op))
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, MapError(err)
	}
	return tasks, nil
}
