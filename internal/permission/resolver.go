package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/store"
)

// Resolver answers access questions from the task and share stores.
// A missing task is reported as store.ErrTaskNotFound.
type Resolver struct {
	tasks  store.TaskStore
	shares store.ShareStore
	logger *slog.Logger
}

// NewResolver creates a Resolver. It panics on nil stores.
func NewResolver(tasks store.TaskStore, shares store.ShareStore, logger *slog.Logger) *Resolver {
	if tasks == nil || shares == nil {
		panic("permission: stores cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		tasks:  tasks,
		shares: shares,
		logger: logger.With(slog.String("component", "permission_resolver")),
	}
}

// Bind returns a Resolver reading through stores, typically the stores of
// an open transaction.
func (r *Resolver) Bind(stores store.Stores) *Resolver {
	return &Resolver{tasks: stores.Tasks, shares: stores.Shares, logger: r.logger}
}

// ResolveAccess returns userID's role on taskID.
func (r *Resolver) ResolveAccess(ctx context.Context, userID, taskID uuid.UUID) (domain.Role, error) {
	task, err := r.tasks.GetByID(ctx, taskID)
	if err != nil {
		return domain.RoleNone, err
	}
	return r.AccessFor(ctx, task, userID)
}

// AccessFor returns userID's role on an already loaded task.
func (r *Resolver) AccessFor(ctx context.Context, task *domain.Task, userID uuid.UUID) (domain.Role, error) {
	if task.OwnerID == userID {
		return domain.RoleOwner, nil
	}

	share, err := r.shares.Get(ctx, task.ID, userID)
	if err != nil {
		if errors.Is(err, store.ErrShareNotFound) {
			return domain.RoleNone, nil
		}
		logger.FromContextOrDefault(ctx, r.logger).Error("failed to look up share",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", userID.String()))
		return domain.RoleNone, fmt.Errorf("resolve access: %w", err)
	}
	return domain.RoleFromPermission(share.Permission), nil
}

// CanView reports whether userID may read taskID.
func (r *Resolver) CanView(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	role, err := r.ResolveAccess(ctx, userID, taskID)
	if err != nil {
		return false, err
	}
	return role.CanView(), nil
}

// CanEdit reports whether userID may modify taskID: owner or editor.
func (r *Resolver) CanEdit(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	role, err := r.ResolveAccess(ctx, userID, taskID)
	if err != nil {
		return false, err
	}
	return role.CanEdit(), nil
}

// CanDelete reports whether userID may delete or re-share taskID: owner only.
func (r *Resolver) CanDelete(ctx context.Context, userID, taskID uuid.UUID) (bool, error) {
	role, err := r.ResolveAccess(ctx, userID, taskID)
	if err != nil {
		return false, err
	}
	return role.CanDelete(), nil
}

// VisibleTasks returns the tasks userID owns or has been shared, each once.
func (r *Resolver) VisibleTasks(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	visible, err := r.VisibleTaskAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	tasks := make([]*domain.Task, len(visible))
	for i, v := range visible {
		tasks[i] = v.Task
	}
	return tasks, nil
}

// VisibleTaskAccess returns the tasks visible to userID annotated with the
// user's role. Owned tasks come first, then shared ones, each newest first.
// A task that is both owned and shared appears once with the owner role.
func (r *Resolver) VisibleTaskAccess(ctx context.Context, userID uuid.UUID) ([]domain.VisibleTask, error) {
	log := logger.FromContextOrDefault(ctx, r.logger)

	owned, err := r.tasks.ListByOwner(ctx, userID)
	if err != nil {
		log.Error("failed to list owned tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("list owned tasks: %w", err)
	}

	shares, err := r.shares.ListSharedWith(ctx, userID)
	if err != nil {
		log.Error("failed to list shares",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("list shares: %w", err)
	}

	roles := make(map[uuid.UUID]domain.Role, len(owned)+len(shares))
	for _, t := range owned {
		roles[t.ID] = domain.RoleOwner
	}

	var sharedIDs []uuid.UUID
	for _, s := range shares {
		current, seen := roles[s.TaskID]
		if !seen {
			current = domain.RoleNone
		}
		roles[s.TaskID] = current.Stronger(domain.RoleFromPermission(s.Permission))
		if !seen {
			sharedIDs = append(sharedIDs, s.TaskID)
		}
	}

	shared, err := r.tasks.ListByIDs(ctx, sharedIDs)
	if err != nil {
		log.Error("failed to load shared tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("load shared tasks: %w", err)
	}

	visible := make([]domain.VisibleTask, 0, len(owned)+len(shared))
	emitted := make(map[uuid.UUID]struct{}, len(owned)+len(shared))
	for _, group := range [][]*domain.Task{owned, shared} {
		for _, t := range group {
			if _, dup := emitted[t.ID]; dup {
				continue
			}
			emitted[t.ID] = struct{}{}
			// Owner wins even if a share row points the user at their own task.
			role := roles[t.ID]
			if t.OwnerID == userID {
				role = domain.RoleOwner
			}
			visible = append(visible, domain.NewVisibleTask(t, role))
		}
	}
	return visible, nil
}
