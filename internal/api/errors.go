package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskshare/internal/api/shared"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/service"
	"github.com/phrazzld/taskshare/internal/service/auth"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest

	// Checked last: every *service.ServiceError matches ErrTransientStore.
	case errors.Is(err, service.ErrTransientStore):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err. Validation
// errors carry their field and constraint; everything else is generic.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, service.ErrForbidden):
		return "You do not have access to this task"
	case errors.Is(err, service.ErrNotFound):
		return "Not found"
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidID):
		return "Validation error"
	case errors.Is(err, service.ErrInvalidArgument):
		return "Invalid request"
	case errors.Is(err, service.ErrTransientStore):
		return "Service temporarily unavailable, please retry"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a struct-tag validation failure into a
// message naming the first offending field.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", fe.Field(), getValidationTagMessage(fe.Tag()))
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err. A non-empty fallback replaces
// the generic message of 500 responses.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallback != "" {
		message = fallback
	}

	var opts []shared.ResponseOption
	if status == http.StatusForbidden {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
