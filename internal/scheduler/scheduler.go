package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/phrazzld/taskshare/internal/recurring"
	"github.com/robfig/cron/v3"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultInterval    = time.Minute
	DefaultTickTimeout = 50 * time.Second
)

// Materializer is the work performed on every tick.
type Materializer interface {
	MaterializeDueOccurrences(ctx context.Context, now time.Time) (recurring.Result, error)
	Now() time.Time
}

// Config tunes a Scheduler.
type Config struct {
	// Interval between ticks. Must be at least one second.
	Interval time.Duration
	// TickTimeout bounds a single pass.
	TickTimeout time.Duration
	// Location is the zone the cron runner uses. Defaults to UTC.
	Location *time.Location
}

// Scheduler triggers materialization passes on an interval.
type Scheduler struct {
	engine      Materializer
	cron        *cron.Cron
	tickTimeout time.Duration
	logger      *slog.Logger

	inFlight atomic.Bool
	passMu   sync.Mutex

	mu      sync.Mutex
	running bool
}

// New creates a stopped Scheduler.
func New(engine Materializer, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if engine == nil {
		return nil, errors.New("scheduler: engine cannot be nil")
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < time.Second {
		return nil, errors.New("scheduler: interval must be at least one second")
	}
	if cfg.TickTimeout <= 0 {
		cfg.TickTimeout = DefaultTickTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "scheduler"))

	cronLog := cronLogger{logger: logger}
	s := &Scheduler{
		engine:      engine,
		tickTimeout: cfg.TickTimeout,
		logger:      logger,
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLog),
			// Recover sits inside SkipIfStillRunning so a panicking pass still
			// releases the skip token and the next tick runs.
			cron.WithChain(cron.SkipIfStillRunning(cronLog), cron.Recover(cronLog)),
		),
	}
	s.cron.Schedule(cron.Every(cfg.Interval), cron.FuncJob(func() {
		s.RunOnce(context.Background())
	}))
	return s, nil
}

// Start begins ticking. Calling Start on a running Scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started")
}

// Stop halts future ticks and waits for an in-flight pass to finish.
// Calling Stop on a stopped Scheduler does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	// A pass started through RunOnce rather than cron still holds passMu.
	s.passMu.Lock()
	s.passMu.Unlock()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// Running reports whether the Scheduler is ticking.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunOnce performs one materialization pass unless another is in progress,
// and reports whether it ran. The pass keeps ctx's values but not its
// cancellation, and is bounded by the tick timeout.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Debug("materialization pass already running, skipping tick")
		return false
	}
	s.passMu.Lock()
	defer func() {
		s.passMu.Unlock()
		s.inFlight.Store(false)
	}()

	passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.tickTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.engine.MaterializeDueOccurrences(passCtx, s.engine.Now())
	if err != nil {
		s.logger.Error("materialization pass failed",
			slog.String("error", err.Error()),
			slog.Int("created", result.Created),
			slog.Duration("elapsed", time.Since(started)))
		return true
	}

	s.logger.Debug("materialization pass finished",
		slog.Int("due", result.Due),
		slog.Int("created", result.Created),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Duration("elapsed", time.Since(started)))
	return true
}

// cronLogger adapts slog to cron.Logger. Routine cron chatter goes to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
