package recurring

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/domain/recurrence"
	"github.com/phrazzld/taskshare/internal/platform/cache"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/service"
	"github.com/phrazzld/taskshare/internal/store"
)

const engineName = "recurrence engine"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// Options tunes an Engine.
type Options struct {
	// Location is the zone rules are evaluated in. Defaults to UTC.
	Location *time.Location
	// Clock defaults to the wall clock.
	Clock Clock
}

// Result counts the outcome of one materialization pass.
type Result struct {
	// Due is the number of templates listed as due.
	Due int
	// Created is the number of occurrences inserted.
	Created int
	// Skipped counts templates that were no longer due once locked.
	Skipped int
	// Failed counts templates whose transaction failed.
	Failed int
}

// RecurringTaskInput carries the fields of a new recurring template.
type RecurringTaskInput struct {
	Title       string
	Description string
	Priority    domain.Priority
	Recurrence  *domain.RecurrenceRule
}

// Engine materializes occurrences of recurring tasks.
type Engine struct {
	tx       store.Transactor
	stores   store.Stores
	cache    *cache.Cache
	location *time.Location
	clock    Clock
	logger   *slog.Logger
}

// NewEngine creates an Engine.
// It returns an error if any of the required dependencies are nil.
func NewEngine(
	tx store.Transactor,
	stores store.Stores,
	listCache *cache.Cache,
	opts Options,
	logger *slog.Logger,
) (*Engine, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if stores.Tasks == nil {
		return nil, domain.NewValidationError("stores.Tasks", "cannot be nil", domain.ErrValidation)
	}
	if stores.Shares == nil {
		return nil, domain.NewValidationError("stores.Shares", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if listCache == nil {
		listCache = cache.NewDisabled(logger)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = ClockFunc(time.Now)
	}

	return &Engine{
		tx:       tx,
		stores:   stores,
		cache:    listCache,
		location: opts.Location,
		clock:    opts.Clock,
		logger:   logger.With(slog.String("component", "recurrence_engine")),
	}, nil
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// MaterializeDueOccurrences creates one occurrence for every recurring task
// due at now and advances each template's next due date past now.
//
// Each template is handled in its own transaction. A failing template is
// logged and counted without aborting the others. Failing to list the due
// templates aborts the pass with an error matching service.ErrTransientStore.
// Cancelling ctx stops the pass before the next template.
func (e *Engine) MaterializeDueOccurrences(ctx context.Context, now time.Time) (Result, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	due, err := e.stores.Tasks.ListDueRecurring(ctx, now)
	if err != nil {
		log.Error("failed to list due recurring tasks",
			slog.String("error", err.Error()))
		return Result{}, service.TranslateError(engineName, "MaterializeDueOccurrences", "failed to list due tasks", err)
	}

	result := Result{Due: len(due)}
	for _, task := range due {
		if err := ctx.Err(); err != nil {
			log.Warn("materialization pass interrupted",
				slog.Int("remaining", result.Due-result.Created-result.Skipped-result.Failed),
				slog.String("error", err.Error()))
			return result, err
		}

		created, affected, err := e.materialize(ctx, task.ID, now)
		switch {
		case err != nil:
			result.Failed++
			log.Error("failed to materialize occurrence",
				slog.String("task_id", task.ID.String()),
				slog.String("error", err.Error()))
		case created:
			result.Created++
			e.cache.InvalidateTaskLists(ctx, affected...)
		default:
			result.Skipped++
		}
	}

	if result.Due > 0 {
		log.Info("materialization pass complete",
			slog.Int("due", result.Due),
			slog.Int("created", result.Created),
			slog.Int("skipped", result.Skipped),
			slog.Int("failed", result.Failed))
	}
	return result, nil
}

// materialize handles one template under its row lock. It reports whether an
// occurrence was created and whose listings changed.
func (e *Engine) materialize(
	ctx context.Context,
	taskID uuid.UUID,
	now time.Time,
) (created bool, affected []uuid.UUID, err error) {
	err = e.tx.InTx(ctx, func(ctx context.Context, tx store.Stores) error {
		task, err := tx.Tasks.GetByIDForUpdate(ctx, taskID)
		if err != nil {
			if store.IsNotFoundError(err) {
				// Deleted since the listing.
				return nil
			}
			return err
		}
		if !task.IsDue(now) {
			return nil
		}

		occurrence, err := domain.NewOccurrence(task, now)
		if err != nil {
			return err
		}
		next, err := recurrence.ComputeNextDueDate(task.Recurrence, now.In(e.location))
		if err != nil {
			return err
		}

		if err := tx.Tasks.Create(ctx, occurrence); err != nil {
			return err
		}
		if err := tx.Tasks.UpdateNextDueDate(ctx, task.ID, next.UTC()); err != nil {
			return err
		}

		// The template's next due date is visible to its sharees too.
		shares, err := tx.Shares.ListByTask(ctx, task.ID)
		if err != nil {
			return err
		}
		affected = []uuid.UUID{task.OwnerID}
		for _, share := range shares {
			affected = append(affected, share.SharedWithUserID)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, nil, err
	}
	return created, affected, nil
}

// CreateRecurringTask stores a new recurring template owned by ownerID. Its
// first due date is the first slot of the rule after the current time.
func (e *Engine) CreateRecurringTask(
	ctx context.Context,
	input RecurringTaskInput,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	rule := input.Recurrence
	if rule == nil || rule.Frequency == "" || rule.Time == "" {
		return nil, domain.NewValidationError(
			"recurrence", "pattern with frequency and time is required", domain.ErrInvalidRecurrence)
	}

	next, err := recurrence.ComputeNextDueDate(rule, e.clock.Now().In(e.location))
	if err != nil {
		return nil, err
	}

	task, err := domain.NewRecurringTask(ownerID, input.Title, input.Description, input.Priority, rule, next.UTC())
	if err != nil {
		return nil, err
	}

	if err := e.stores.Tasks.Create(ctx, task); err != nil {
		log.Error("failed to create recurring task",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, service.TranslateError(engineName, "CreateRecurringTask", "failed to create recurring task", err)
	}

	e.cache.InvalidateTaskLists(ctx, ownerID)

	log.Info("recurring task created",
		slog.String("task_id", task.ID.String()),
		slog.String("frequency", string(rule.Frequency)),
		slog.Time("next_due_date", next))
	return task, nil
}
