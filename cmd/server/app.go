package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskshare/internal/api"
	"github.com/phrazzld/taskshare/internal/config"
	"github.com/phrazzld/taskshare/internal/platform/cache"
	"github.com/phrazzld/taskshare/internal/platform/postgres"
	"github.com/phrazzld/taskshare/internal/recurring"
	"github.com/phrazzld/taskshare/internal/redact"
	"github.com/phrazzld/taskshare/internal/scheduler"
	"github.com/phrazzld/taskshare/internal/service"
	"github.com/phrazzld/taskshare/internal/service/auth"
	"github.com/phrazzld/taskshare/internal/store"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	redis     *redis.Client
	listCache *cache.Cache

	stores store.Stores
	tx     store.Transactor

	jwtService   auth.JWTService
	taskService  service.TaskService
	shareService service.ShareService
	engine       *recurring.Engine
	scheduler    *scheduler.Scheduler

	router http.Handler
}

// newApplication wires every component on top of an open database. The
// database stays owned by the caller; close releases everything else.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		stores: postgres.NewStores(db, logger),
		tx:     postgres.NewTransactor(db, logger),
	}

	app.setupCache(ctx)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.taskService, err = service.NewTaskService(app.stores, app.tx, app.listCache, cfg.Cache.DefaultTTL(), logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize task service: %w", err)
	}
	app.shareService, err = service.NewShareService(app.stores, app.tx, app.listCache, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize share service: %w", err)
	}

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		app.close()
		return nil, fmt.Errorf("invalid scheduler timezone: %w", err)
	}
	app.engine, err = recurring.NewEngine(app.tx, app.stores, app.listCache, recurring.Options{Location: loc}, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize recurrence engine: %w", err)
	}
	app.scheduler, err = scheduler.New(app.engine, scheduler.Config{
		Interval:    cfg.Scheduler.Interval(),
		TickTimeout: cfg.Scheduler.TickTimeout(),
		Location:    loc,
	}, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	app.router = api.NewRouter(api.RouterDeps{
		Tasks:     app.taskService,
		Shares:    app.shareService,
		Recurring: app.engine,
		JWT:       app.jwtService,
		Health:    db.PingContext,
		Logger:    logger,
	})

	logger.Info("application initialized",
		slog.Bool("cache_enabled", cfg.Cache.Enabled),
		slog.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		slog.String("scheduler_timezone", loc.String()))
	return app, nil
}

// setupCache connects to Redis when the cache is enabled. A disabled cache
// always misses and never touches the network. An unreachable Redis is not
// fatal: the cache misses until the client reconnects.
func (app *application) setupCache(ctx context.Context) {
	cfg := app.config.Cache
	if !cfg.Enabled {
		app.listCache = cache.NewDisabled(app.logger)
		return
	}

	client := cache.NewRedisClient(cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := cache.PingRedis(ctx, client, 0); err != nil {
		app.logger.Warn("redis unavailable at startup, serving without cache until it recovers",
			slog.String("redis_addr", cfg.RedisAddr),
			slog.String("error", redact.Error(err)))
	}

	app.redis = client
	app.listCache = cache.New(cache.NewRedisBackend(client), cache.Options{
		DefaultTTL:       cfg.DefaultTTL(),
		OperationTimeout: cfg.OperationTimeout(),
	}, app.logger)
}

// close stops the scheduler and releases the Redis connection. It is safe
// to call more than once.
func (app *application) close() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("failed to close redis client", slog.String("error", err.Error()))
		}
		app.redis = nil
	}
}
