package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/api/shared"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/service/auth"
)

// getPathUUID parses the named chi path parameter as a UUID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// requireUserID returns the authenticated user, writing a 401 when the auth
// middleware did not run.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		logger.FromContext(r.Context()).Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, auth.ErrMissingToken, "")
		return uuid.Nil, false
	}
	return userID, true
}

// handleUserIDAndPathUUID extracts both the user ID from context and a UUID
// path parameter, writing an error response if either is missing.
func handleUserIDAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContext(r.Context()).Debug("invalid path parameter",
			slog.String("param_name", paramName),
			slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, pathID, true
}

// decodeAndValidate decodes the JSON body into req and validates it,
// writing a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}
