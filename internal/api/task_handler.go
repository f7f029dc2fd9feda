package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/api/shared"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/recurring"
	"github.com/phrazzld/taskshare/internal/service"
)

// RecurringTaskCreator creates recurring template tasks.
// *recurring.Engine satisfies it.
type RecurringTaskCreator interface {
	CreateRecurringTask(ctx context.Context, input recurring.RecurringTaskInput, ownerID uuid.UUID) (*domain.Task, error)
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	tasks     service.TaskService
	recurring RecurringTaskCreator
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(
	tasks service.TaskService,
	recurringCreator RecurringTaskCreator,
	logger *slog.Logger,
) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}

	return &TaskHandler{
		tasks:     tasks,
		recurring: recurringCreator,
		logger:    logger.With(slog.String("component", "task_handler")),
	}
}

// ListTasks handles GET /api/tasks requests.
// It returns every task the caller owns or has been shared.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	visible, err := h.tasks.ListVisibleTasks(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}

	resp := make([]VisibleTaskResponse, 0, len(visible))
	for _, v := range visible {
		resp = append(resp, visibleTaskToResponse(v))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// CreateTask handles POST /api/tasks requests
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// CreateRecurringTask handles POST /api/tasks/recurring requests.
// The response carries the template with its first due date.
func (h *TaskHandler) CreateRecurringTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if h.recurring == nil {
		shared.RespondWithError(w, r, http.StatusNotImplemented, "Recurring tasks are not enabled")
		return
	}

	var req CreateRecurringTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.recurring.CreateRecurringTask(r.Context(), recurring.RecurringTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.Priority(req.Priority),
		Recurrence:  req.Recurrence.toDomain(),
	}, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create recurring task")
		return
	}

	log.Debug("recurring task created",
		slog.String("task_id", task.ID.String()),
		slog.String("frequency", req.Recurrence.Frequency))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// GetTask handles GET /api/tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	visible, err := h.tasks.GetTask(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, visibleTaskToResponse(*visible))
}

// UpdateTask handles PUT /api/tasks/{id} requests.
// Owners and editors may update; viewers get 403.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	patch := req.toPatch()
	if patch.IsEmpty() {
		HandleAPIError(w, r,
			domain.NewValidationError("", "at least one field must be provided", domain.ErrValidation), "")
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), userID, taskID, patch)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update task")
		return
	}

	log.Debug("task updated", slog.String("task_id", taskID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id} requests. Only the owner may delete.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), userID, taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
