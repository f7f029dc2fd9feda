package domain

import (
	"time"

	"github.com/google/uuid"
)

// Permission is the level of access a share grants.
type Permission string

const (
	PermissionViewer Permission = "viewer"
	PermissionEditor Permission = "editor"
)

// IsValid reports whether p is a grantable permission.
func (p Permission) IsValid() bool {
	return p == PermissionViewer || p == PermissionEditor
}

// Share grants a user access to another user's task. There is at most one
// share per (TaskID, SharedWithUserID); re-sharing updates Permission.
type Share struct {
	ID               uuid.UUID  `json:"id"`
	TaskID           uuid.UUID  `json:"task_id"`
	OwnerID          uuid.UUID  `json:"owner_id"`
	SharedWithUserID uuid.UUID  `json:"shared_with_user_id"`
	Permission       Permission `json:"permission"`
	SharedAt         time.Time  `json:"shared_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewShare creates a share of task with target.
func NewShare(task *Task, targetID uuid.UUID, permission Permission) (*Share, error) {
	if !permission.IsValid() {
		return nil, NewValidationError("permission", "must be one of: viewer editor", ErrValidation)
	}
	if targetID == uuid.Nil {
		return nil, NewValidationError("shared_with_user_id", "cannot be empty", ErrInvalidID)
	}

	now := time.Now().UTC()
	return &Share{
		ID:               uuid.New(),
		TaskID:           task.ID,
		OwnerID:          task.OwnerID,
		SharedWithUserID: targetID,
		Permission:       permission,
		SharedAt:         now,
		UpdatedAt:        now,
	}, nil
}

// ShareDetails is a share with the display attributes of both parties.
type ShareDetails struct {
	Share
	SharedWith UserSummary `json:"shared_with"`
	Owner      UserSummary `json:"owner"`
}
