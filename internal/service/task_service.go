package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/permission"
	"github.com/phrazzld/taskshare/internal/platform/cache"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/store"
)

const taskServiceName = "task service"

// CreateTaskInput carries the fields of a new one-shot task.
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    domain.Priority
}

// TaskService provides permission-checked task operations.
type TaskService interface {
	// CreateTask stores a new non-recurring task owned by ownerID.
	CreateTask(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error)

	// GetTask returns the task annotated with the requester's role.
	// Returns ErrForbidden when the requester has no access.
	GetTask(ctx context.Context, requesterID, taskID uuid.UUID) (*domain.VisibleTask, error)

	// ListVisibleTasks returns every task the user owns or has been shared,
	// served from the cache when possible.
	ListVisibleTasks(ctx context.Context, userID uuid.UUID) ([]domain.VisibleTask, error)

	// UpdateTask applies patch when the requester is the owner or an editor.
	UpdateTask(ctx context.Context, requesterID, taskID uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)

	// DeleteTask removes the task and its shares. Only the owner may delete.
	DeleteTask(ctx context.Context, requesterID, taskID uuid.UUID) error
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	stores   store.Stores
	tx       store.Transactor
	resolver *permission.Resolver
	cache    *cache.Cache
	listTTL  time.Duration
	logger   *slog.Logger
}

var _ TaskService = (*taskServiceImpl)(nil)

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
// A nil cache disables listing caching; listTTL <= 0 uses the cache default.
func NewTaskService(
	stores store.Stores,
	tx store.Transactor,
	listCache *cache.Cache,
	listTTL time.Duration,
	logger *slog.Logger,
) (TaskService, error) {
	if err := validateStores(stores); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if listCache == nil {
		listCache = cache.NewDisabled(logger)
	}

	return &taskServiceImpl{
		stores:   stores,
		tx:       tx,
		resolver: permission.NewResolver(stores.Tasks, stores.Shares, logger),
		cache:    listCache,
		listTTL:  listTTL,
		logger:   logger.With(slog.String("component", "task_service")),
	}, nil
}

func validateStores(stores store.Stores) error {
	if stores.Tasks == nil {
		return domain.NewValidationError("stores.Tasks", "cannot be nil", domain.ErrValidation)
	}
	if stores.Shares == nil {
		return domain.NewValidationError("stores.Shares", "cannot be nil", domain.ErrValidation)
	}
	if stores.Users == nil {
		return domain.NewValidationError("stores.Users", "cannot be nil", domain.ErrValidation)
	}
	return nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	input CreateTaskInput,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, input.Title, input.Description, input.Priority)
	if err != nil {
		log.Debug("rejected new task",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.stores.Tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, TranslateError(taskServiceName, "CreateTask", "failed to create task", err)
	}

	s.cache.InvalidateTaskLists(ctx, ownerID)

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(
	ctx context.Context,
	requesterID, taskID uuid.UUID,
) (*domain.VisibleTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.stores.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to load task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, TranslateError(taskServiceName, "GetTask", "failed to load task", err)
	}

	role, err := s.resolver.AccessFor(ctx, task, requesterID)
	if err != nil {
		return nil, TranslateError(taskServiceName, "GetTask", "failed to resolve access", err)
	}
	if !role.CanView() {
		log.Debug("task read denied",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", requesterID.String()))
		return nil, ErrForbidden
	}

	visible := domain.NewVisibleTask(task, role)
	return &visible, nil
}

// ListVisibleTasks implements TaskService.ListVisibleTasks
// The listing is cache-aside under cache.TaskListKey(userID).
func (s *taskServiceImpl) ListVisibleTasks(ctx context.Context, userID uuid.UUID) ([]domain.VisibleTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	key := cache.TaskListKey(userID)

	var cached []domain.VisibleTask
	if s.cache.Get(ctx, key, &cached) {
		log.Debug("task listing served from cache", slog.String("user_id", userID.String()))
		return cached, nil
	}

	visible, err := s.resolver.VisibleTaskAccess(ctx, userID)
	if err != nil {
		return nil, TranslateError(taskServiceName, "ListVisibleTasks", "failed to list visible tasks", err)
	}

	s.cache.Set(ctx, key, visible, s.listTTL)
	return visible, nil
}

// UpdateTask implements TaskService.UpdateTask
// The task row stays locked from the access check until the write commits.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	requesterID, taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		updated  *domain.Task
		affected []uuid.UUID
	)
	err := s.tx.InTx(ctx, func(ctx context.Context, tx store.Stores) error {
		task, err := tx.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		role, err := s.resolver.Bind(tx).AccessFor(ctx, task, requesterID)
		if err != nil {
			return err
		}
		if !role.CanEdit() {
			return fmt.Errorf("%w: role %s cannot edit task", ErrForbidden, role)
		}

		if err := patch.Apply(task, time.Now().UTC()); err != nil {
			return err
		}
		if err := tx.Tasks.Update(ctx, task); err != nil {
			return err
		}

		affected, err = affectedUsers(ctx, tx, task)
		if err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		log.Debug("task update rejected",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", requesterID.String()),
			slog.String("error", err.Error()))
		return nil, TranslateError(taskServiceName, "UpdateTask", "failed to update task", err)
	}

	s.cache.InvalidateTaskLists(ctx, affected...)

	log.Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", requesterID.String()))
	return updated, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, requesterID, taskID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var affected []uuid.UUID
	err := s.tx.InTx(ctx, func(ctx context.Context, tx store.Stores) error {
		task, err := tx.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != requesterID {
			return fmt.Errorf("%w: only the owner can delete a task", ErrForbidden)
		}

		affected, err = affectedUsers(ctx, tx, task)
		if err != nil {
			return err
		}
		if _, err := tx.Shares.DeleteByTask(ctx, taskID); err != nil {
			return err
		}
		return tx.Tasks.Delete(ctx, taskID)
	})
	if err != nil {
		log.Debug("task delete rejected",
			slog.String("task_id", taskID.String()),
			slog.String("user_id", requesterID.String()),
			slog.String("error", err.Error()))
		return TranslateError(taskServiceName, "DeleteTask", "failed to delete task", err)
	}

	s.cache.InvalidateTaskLists(ctx, affected...)

	log.Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.Int("sharees", len(affected)-1))
	return nil
}

// affectedUsers returns the owner of task followed by every user it is
// shared with, read through tx so the set matches the committed state.
func affectedUsers(ctx context.Context, tx store.Stores, task *domain.Task) ([]uuid.UUID, error) {
	shares, err := tx.Shares.ListByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	users := make([]uuid.UUID, 0, len(shares)+1)
	users = append(users, task.OwnerID)
	for _, share := range shares {
		users = append(users, share.SharedWithUserID)
	}
	return users, nil
}
