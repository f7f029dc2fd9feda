package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskshare/internal/api/shared"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/service"
)

// ShareHandler handles task sharing HTTP requests
type ShareHandler struct {
	shares service.ShareService
	logger *slog.Logger
}

// NewShareHandler creates a new ShareHandler
func NewShareHandler(shares service.ShareService, logger *slog.Logger) *ShareHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ShareHandler")
	}

	return &ShareHandler{
		shares: shares,
		logger: logger.With(slog.String("component", "share_handler")),
	}
}

// ShareTask handles POST /api/tasks/{id}/share requests.
// Sharing again with the same user replaces the permission.
func (h *ShareHandler) ShareTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req ShareTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	share, err := h.shares.Share(r.Context(), userID, taskID, req.Email, domain.Permission(req.Permission))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to share task")
		return
	}

	log.Debug("task shared",
		slog.String("task_id", taskID.String()),
		slog.String("shared_with", share.SharedWithUserID.String()),
		slog.String("permission", string(share.Permission)))
	shared.RespondWithJSON(w, r, http.StatusOK, shareToResponse(share))
}

// UnshareTask handles DELETE /api/tasks/{id}/share/{userID} requests.
// Revoking a share that does not exist succeeds.
func (h *ShareHandler) UnshareTask(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	targetID, err := getPathUUID(r, "userID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.shares.Unshare(r.Context(), userID, taskID, targetID); err != nil {
		HandleAPIError(w, r, err, "Failed to unshare task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListShares handles GET /api/tasks/{id}/shares requests
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	userID, taskID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	details, err := h.shares.ListShares(r.Context(), userID, taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list shares")
		return
	}

	resp := make([]ShareDetailsResponse, 0, len(details))
	for _, d := range details {
		resp = append(resp, shareDetailsToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
