package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/store"
)

// Service errors. Callers check them with errors.Is; the API layer maps each
// one to an HTTP status.
var (
	// ErrNotFound indicates the task or user does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden indicates the requester's role does not allow the operation.
	// API layer should map this to HTTP 403 Forbidden.
	ErrForbidden = errors.New("operation not permitted")

	// ErrInvalidArgument indicates a well-formed request that cannot be
	// applied, such as sharing a task with its owner.
	// API layer should map this to HTTP 400 Bad Request.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTransientStore indicates the backing store failed. Retrying may help.
	// API layer should map this to HTTP 503 Service Unavailable.
	ErrTransientStore = errors.New("transient store failure")
)

// ServiceError wraps an unexpected failure of a service operation.
// It matches ErrTransientStore through errors.Is.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransientStore.
func (e *ServiceError) Is(target error) bool {
	return target == ErrTransientStore
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// TranslateError converts err into the service error taxonomy. Sentinels and
// validation errors pass through, store not-found becomes ErrNotFound, a
// rejected entity becomes ErrInvalidArgument and anything else is wrapped in
// a ServiceError.
func TranslateError(service, operation, message string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrTransientStore),
		errors.Is(err, domain.ErrValidation):
		return err
	case store.IsNotFoundError(err):
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	case errors.Is(err, store.ErrInvalidEntity):
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	default:
		return NewServiceError(service, operation, message, err)
	}
}
