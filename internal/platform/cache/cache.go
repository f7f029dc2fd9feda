package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/platform/logger"
)

// Defaults applied when Options leaves a field zero.
const (
	DefaultTTL              = 300 * time.Second
	DefaultOperationTimeout = 250 * time.Millisecond
)

// TaskListKey returns the key under which userID's visible task listing is cached.
func TaskListKey(userID uuid.UUID) string {
	return "tasks:" + userID.String()
}

// Options tunes a Cache.
type Options struct {
	// DefaultTTL applies when Set is called with ttl <= 0.
	DefaultTTL time.Duration
	// OperationTimeout bounds every backend call.
	OperationTimeout time.Duration
}

// Cache is a best-effort cache-aside store over a Backend.
type Cache struct {
	backend    Backend
	defaultTTL time.Duration
	opTimeout  time.Duration
	logger     *slog.Logger
}

// New creates a Cache. A nil backend behaves like DisabledBackend.
func New(backend Backend, opts Options, logger *slog.Logger) *Cache {
	if backend == nil {
		backend = DisabledBackend{}
	}
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.OperationTimeout <= 0 {
		opts.OperationTimeout = DefaultOperationTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		backend:    backend,
		defaultTTL: opts.DefaultTTL,
		opTimeout:  opts.OperationTimeout,
		logger:     logger.With(slog.String("component", "cache")),
	}
}

// NewDisabled returns a Cache that always misses.
func NewDisabled(logger *slog.Logger) *Cache {
	return New(DisabledBackend{}, Options{}, logger)
}

// opContext detaches from the caller's cancellation and applies the
// operation timeout. An invalidation issued after a commit must still run
// when the request that triggered it has already been cancelled.
func (c *Cache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.opTimeout)
}

// Get decodes the value stored under key into dst and reports whether it
// was a hit. Absence, backend failure and decode failure are all misses.
func (c *Cache) Get(ctx context.Context, key string, dst any) bool {
	log := logger.FromContextOrDefault(ctx, c.logger)

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	data, err := c.backend.Get(opCtx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Warn("cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}

	if err := decode(data, dst); err != nil {
		log.Warn("cache value undecodable, treating as miss",
			slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Set stores value under key. A ttl <= 0 uses the default TTL. Failures are
// logged and otherwise ignored.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := encode(value)
	if err != nil {
		log.Error("cache value not encodable", slog.String("key", key), slog.String("error", err.Error()))
		return
	}

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.backend.Set(opCtx, key, data, ttl); err != nil {
		log.Warn("cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Delete removes keys. It is idempotent; failures are logged and otherwise ignored.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	log := logger.FromContextOrDefault(ctx, c.logger)

	opCtx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.backend.Delete(opCtx, keys...); err != nil {
		log.Warn("cache delete failed", slog.Any("keys", keys), slog.String("error", err.Error()))
		return
	}
	log.Debug("cache keys invalidated", slog.Any("keys", keys))
}

// InvalidateTaskLists deletes the listing key of every user in userIDs,
// ignoring duplicates.
func (c *Cache) InvalidateTaskLists(ctx context.Context, userIDs ...uuid.UUID) {
	seen := make(map[uuid.UUID]struct{}, len(userIDs))
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, TaskListKey(id))
	}
	c.Delete(ctx, keys...)
}
