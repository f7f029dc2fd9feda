package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits for tasks.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Task is a unit of work owned by a single user. A recurring task acts as a
// template: the scheduler generates plain occurrences from it, each pointing
// back via ParentTaskID, and advances NextDueDate after every generation.
type Task struct {
	ID           uuid.UUID       `json:"id"`
	OwnerID      uuid.UUID       `json:"owner_id"`
	Title        string          `json:"title" validate:"required,max=100"`
	Description  string          `json:"description" validate:"max=500"`
	Completed    bool            `json:"completed"`
	Priority     Priority        `json:"priority" validate:"required,oneof=low medium high"`
	IsRecurring  bool            `json:"is_recurring"`
	Recurrence   *RecurrenceRule `json:"recurrence,omitempty" validate:"-"`
	ParentTaskID *uuid.UUID      `json:"parent_task_id,omitempty"`
	NextDueDate  *time.Time      `json:"next_due_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewTask creates a one-shot task for ownerID. An empty priority defaults to
// PriorityMedium. Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, title, description string, priority Priority) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// NewRecurringTask creates a recurring template task. The caller computes
// nextDue from the rule; it must already be set when the task is persisted.
func NewRecurringTask(
	ownerID uuid.UUID,
	title, description string,
	priority Priority,
	rule *RecurrenceRule,
	nextDue time.Time,
) (*Task, error) {
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now().UTC()
	due := nextDue
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    priority,
		IsRecurring: true,
		Recurrence:  rule.Clone(),
		NextDueDate: &due,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// NewOccurrence creates the concrete occurrence generated from a recurring
// parent at time now. Occurrences are never recurring themselves.
func NewOccurrence(parent *Task, now time.Time) (*Task, error) {
	if parent == nil || !parent.IsRecurring {
		return nil, NewValidationError("parent_task_id", "must reference a recurring task", ErrValidation)
	}

	parentID := parent.ID
	task := &Task{
		ID:           uuid.New(),
		OwnerID:      parent.OwnerID,
		Title:        parent.Title,
		Description:  parent.Description,
		Priority:     parent.Priority,
		ParentTaskID: &parentID,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks field constraints and the recurrence invariant: a recurring
// task carries a valid rule and a next due date.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.OwnerID == uuid.Nil {
		return NewValidationError("owner_id", "cannot be empty", ErrInvalidID)
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "is required", ErrValidation)
	}
	if len([]rune(t.Title)) > MaxTitleLength {
		return NewValidationError("title", "must be at most 100 characters", ErrValidation)
	}
	if len([]rune(t.Description)) > MaxDescriptionLength {
		return NewValidationError("description", "must be at most 500 characters", ErrValidation)
	}
	if err := validateStruct(t); err != nil {
		return err
	}

	if t.IsRecurring {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
		if t.NextDueDate == nil {
			return NewValidationError("next_due_date", "is required for recurring tasks", ErrValidation)
		}
	} else if t.Recurrence != nil {
		return NewValidationError("recurrence", "is only allowed on recurring tasks", ErrValidation)
	}
	return nil
}

// IsDue reports whether a recurring task should generate an occurrence at now.
func (t *Task) IsDue(now time.Time) bool {
	return t.IsRecurring && t.NextDueDate != nil && !t.NextDueDate.After(now)
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Recurrence = t.Recurrence.Clone()
	if t.ParentTaskID != nil {
		v := *t.ParentTaskID
		c.ParentTaskID = &v
	}
	if t.NextDueDate != nil {
		v := *t.NextDueDate
		c.NextDueDate = &v
	}
	return &c
}

// TaskPatch is a partial update. Nil fields are left unchanged. Ownership and
// recurrence are not patchable.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Completed   *bool     `json:"completed,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil && p.Priority == nil
}

// Apply writes the patch onto t, stamps UpdatedAt and revalidates. On error t
// may be partially modified; callers work on a copy inside a transaction.
func (p TaskPatch) Apply(t *Task, now time.Time) error {
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	t.UpdatedAt = now.UTC()
	return t.Validate()
}
