package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// It is normally wrapped by a *ValidationError naming the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidRecurrence is returned when a recurrence rule is malformed.
	ErrInvalidRecurrence = fmt.Errorf("%w: invalid recurrence rule", ErrValidation)
)

// ValidationError describes a single field constraint violation.
type ValidationError struct {
	Field   string // Name of the field that failed validation
	Message string // Human-readable description of the violation
	Err     error  // Underlying sentinel, usually ErrValidation
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field. A nil err defaults
// to ErrValidation so that errors.Is(err, ErrValidation) always holds.
func NewValidationError(field, message string, err error) *ValidationError {
	if err == nil {
		err = ErrValidation
	}
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
