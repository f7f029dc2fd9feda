package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Users are created by the authentication
// collaborator; the task tracker only reads them to resolve share targets
// and display attributes.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email" validate:"required,email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates a new User with a fresh ID. The email is normalized to
// lower case. Returns an error if validation fails.
func NewUser(email, name string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	return validateStruct(u)
}

// UserSummary is the display projection of a user attached to share listings.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Summary returns the display projection of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
