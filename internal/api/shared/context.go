package shared

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/platform/logger"
)

// ContextKey is the type of request-scoped values set by the API layer.
type ContextKey string

// UserIDContextKey is the context key for the authenticated user ID.
const UserIDContextKey ContextKey = "userID"

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDContextKey, userID)
}

// UserIDFromContext returns the authenticated user ID, if one was set.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// GetTraceID returns the ID used to correlate logs and error responses for
// the request carried by ctx. The request logger's ID wins over chi's.
func GetTraceID(ctx context.Context) string {
	if id := logger.RequestID(ctx); id != "" {
		return id
	}
	return middleware.GetReqID(ctx)
}
