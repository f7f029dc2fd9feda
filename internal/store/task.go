package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// Create saves a new task. It validates the task before persisting.
	// Returns ErrInvalidEntity if the owner or parent does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetByIDForUpdate retrieves a task and locks its row until the
	// surrounding transaction ends. Only meaningful inside Transactor.InTx.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists the mutable fields of a task (title, description,
	// completed, priority, updated_at).
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateNextDueDate advances a recurring task's next due date.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateNextDueDate(ctx context.Context, id uuid.UUID, next time.Time) error

	// Delete removes a task. Occurrences generated from it keep existing with
	// their parent reference cleared.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner returns every task owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// ListByIDs returns the tasks with the given IDs, newest first. Unknown IDs
	// are ignored.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Task, error)

	// ListDueRecurring returns recurring tasks whose next due date is at or
	// before now, earliest first.
	ListDueRecurring(ctx context.Context, now time.Time) ([]*domain.Task, error)
}
