package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
)

// ShareStore defines the interface for task share persistence.
type ShareStore interface {
	// Upsert creates the share or, when one already exists for
	// (TaskID, SharedWithUserID), updates its permission in place. The
	// stored share (with its original ID and SharedAt) is written back into
	// share. The operation is atomic.
	Upsert(ctx context.Context, share *domain.Share) error

	// Get retrieves the share of taskID with userID.
	// Returns ErrShareNotFound if none exists.
	Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Share, error)

	// Delete removes the share of taskID with userID. Deleting a share that
	// does not exist is not an error.
	Delete(ctx context.Context, taskID, userID uuid.UUID) error

	// DeleteByTask removes every share of taskID and returns how many were removed.
	DeleteByTask(ctx context.Context, taskID uuid.UUID) (int64, error)

	// ListByTask returns every share of taskID, oldest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Share, error)

	// ListSharedWith returns every share granted to userID.
	ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.Share, error)
}
