package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskshare/internal/api/middleware"
	"github.com/phrazzld/taskshare/internal/api/shared"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/redact"
	"github.com/phrazzld/taskshare/internal/service"
	"github.com/phrazzld/taskshare/internal/service/auth"
)

// healthCheckTimeout bounds the dependency probe behind GET /health.
const healthCheckTimeout = 2 * time.Second

// HealthCheck probes a backing dependency, typically the database.
type HealthCheck func(ctx context.Context) error

// RouterDeps holds what NewRouter wires into handlers.
type RouterDeps struct {
	Tasks     service.TaskService
	Shares    service.ShareService
	Recurring RecurringTaskCreator
	JWT       auth.JWTService
	Health    HealthCheck
	Logger    *slog.Logger
}

// NewRouter creates the application router with all routes and middleware.
// Everything under /api requires a bearer token; /health is public.
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewTraceMiddleware(log))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	taskHandler := NewTaskHandler(deps.Tasks, deps.Recurring, log)
	shareHandler := NewShareHandler(deps.Shares, log)
	authMiddleware := middleware.NewAuthMiddleware(deps.JWT)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.Post("/", taskHandler.CreateTask)
			r.Post("/recurring", taskHandler.CreateRecurringTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				r.Put("/", taskHandler.UpdateTask)
				r.Delete("/", taskHandler.DeleteTask)

				r.Post("/share", shareHandler.ShareTask)
				r.Delete("/share/{userID}", shareHandler.UnshareTask)
				r.Get("/shares", shareHandler.ListShares)
			})
		})
	})

	r.Get("/health", healthHandler(deps.Health))

	return r
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.FromContext(r.Context()).Warn("health check failed",
					slog.String("error", redact.Error(err)))
				shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
				return
			}
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
	}
}
