package api

import (
	"time"

	"github.com/phrazzld/taskshare/internal/domain"
)

// Request payloads

// CreateTaskRequest defines the payload for POST /api/tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"       validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Priority    string `json:"priority"    validate:"omitempty,oneof=low medium high"`
}

// RecurrencePayload is the wire form of a recurrence rule.
type RecurrencePayload struct {
	Frequency  string `json:"frequency"              validate:"required,oneof=daily weekly monthly"`
	Time       string `json:"time"                   validate:"required"`
	DayOfWeek  *int   `json:"day_of_week,omitempty"  validate:"omitempty,min=0,max=6"`
	DayOfMonth *int   `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
}

// CreateRecurringTaskRequest defines the payload for POST /api/tasks/recurring.
type CreateRecurringTaskRequest struct {
	Title       string             `json:"title"       validate:"required,max=100"`
	Description string             `json:"description" validate:"max=500"`
	Priority    string             `json:"priority"    validate:"omitempty,oneof=low medium high"`
	Recurrence  *RecurrencePayload `json:"recurrence"  validate:"required"`
}

// UpdateTaskRequest defines the payload for PUT /api/tasks/{id}. Absent
// fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Completed   *bool   `json:"completed,omitempty"`
	Priority    *string `json:"priority,omitempty"    validate:"omitempty,oneof=low medium high"`
}

// ShareTaskRequest defines the payload for POST /api/tasks/{id}/share.
type ShareTaskRequest struct {
	Email      string `json:"email"      validate:"required,email"`
	Permission string `json:"permission" validate:"required,oneof=viewer editor"`
}

// Response payloads

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID           string             `json:"id"`
	OwnerID      string             `json:"owner_id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Completed    bool               `json:"completed"`
	Priority     string             `json:"priority"`
	IsRecurring  bool               `json:"is_recurring"`
	Recurrence   *RecurrencePayload `json:"recurrence,omitempty"`
	ParentTaskID *string            `json:"parent_task_id,omitempty"`
	NextDueDate  *time.Time         `json:"next_due_date,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// VisibleTaskResponse is a task annotated with the caller's role.
type VisibleTaskResponse struct {
	TaskResponse
	Role    string `json:"role"`
	CanEdit bool   `json:"can_edit"`
}

// UserSummaryResponse identifies a party to a share.
type UserSummaryResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ShareResponse is the wire form of a share.
type ShareResponse struct {
	ID               string    `json:"id"`
	TaskID           string    `json:"task_id"`
	OwnerID          string    `json:"owner_id"`
	SharedWithUserID string    `json:"shared_with_user_id"`
	Permission       string    `json:"permission"`
	SharedAt         time.Time `json:"shared_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ShareDetailsResponse is a share with both parties' display attributes.
type ShareDetailsResponse struct {
	ShareResponse
	SharedWith UserSummaryResponse `json:"shared_with"`
	Owner      UserSummaryResponse `json:"owner"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (p *RecurrencePayload) toDomain() *domain.RecurrenceRule {
	if p == nil {
		return nil
	}
	return &domain.RecurrenceRule{
		Frequency:  domain.Frequency(p.Frequency),
		Time:       p.Time,
		DayOfWeek:  p.DayOfWeek,
		DayOfMonth: p.DayOfMonth,
	}
}

func (req UpdateTaskRequest) toPatch() domain.TaskPatch {
	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		patch.Priority = &p
	}
	return patch
}

func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID.String(),
		OwnerID:     task.OwnerID.String(),
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		Priority:    string(task.Priority),
		IsRecurring: task.IsRecurring,
		NextDueDate: task.NextDueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.ParentTaskID != nil {
		parent := task.ParentTaskID.String()
		resp.ParentTaskID = &parent
	}
	if rule := task.Recurrence; rule != nil {
		resp.Recurrence = &RecurrencePayload{
			Frequency:  string(rule.Frequency),
			Time:       rule.Time,
			DayOfWeek:  rule.DayOfWeek,
			DayOfMonth: rule.DayOfMonth,
		}
	}
	return resp
}

func visibleTaskToResponse(v domain.VisibleTask) VisibleTaskResponse {
	return VisibleTaskResponse{
		TaskResponse: taskToResponse(v.Task),
		Role:         string(v.Role),
		CanEdit:      v.CanEdit,
	}
}

func shareToResponse(share *domain.Share) ShareResponse {
	return ShareResponse{
		ID:               share.ID.String(),
		TaskID:           share.TaskID.String(),
		OwnerID:          share.OwnerID.String(),
		SharedWithUserID: share.SharedWithUserID.String(),
		Permission:       string(share.Permission),
		SharedAt:         share.SharedAt,
		UpdatedAt:        share.UpdatedAt,
	}
}

func summaryToResponse(u domain.UserSummary) UserSummaryResponse {
	return UserSummaryResponse{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

func shareDetailsToResponse(d domain.ShareDetails) ShareDetailsResponse {
	return ShareDetailsResponse{
		ShareResponse: shareToResponse(&d.Share),
		SharedWith:    summaryToResponse(d.SharedWith),
		Owner:         summaryToResponse(d.Owner),
	}
}
