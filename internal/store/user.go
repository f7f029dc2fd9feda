package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
)

// UserStore defines the interface for user lookups. Accounts are provisioned
// by the authentication collaborator; Create exists for that collaborator and
// for tests.
type UserStore interface {
	// Create saves a new user.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email, compared case-insensitively.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
