package middleware

import (
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/platform/logger"
)

// NewTraceMiddleware scopes base to the request and stores it in the request
// context with a request ID. chi's request ID is reused when present.
// Apply it after chimw.RequestID so both agree.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := chimw.GetReqID(r.Context())
			if traceID == "" {
				traceID = uuid.NewString()
			}

			ctx := logger.WithLogger(r.Context(), base)
			ctx = logger.WithRequestID(ctx, traceID)

			logger.FromContext(ctx).Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
