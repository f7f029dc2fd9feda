//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TASKSHARE_TEST_DATABASE_URL and applies migrations.
// Each test truncates the tables it touches.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("TASKSHARE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TASKSHARE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, url, PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db, nil))
	_, err = db.ExecContext(ctx, `TRUNCATE task_shares, tasks, users CASCADE`)
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, stores store.Stores, email string) *domain.User {
	t.Helper()
	user, err := domain.NewUser(email, email)
	require.NoError(t, err)
	require.NoError(t, stores.Users.Create(context.Background(), user))
	return user
}

func intPtr(v int) *int { return &v }

func TestIntegration_TaskLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	stores := NewStores(db, nil)

	owner := createUser(t, stores, "owner@example.com")

	due := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	rule := &domain.RecurrenceRule{Frequency: domain.FrequencyMonthly, Time: "09:00", DayOfMonth: intPtr(31)}
	template, err := domain.NewRecurringTask(owner.ID, "Rent", "", domain.PriorityHigh, rule, due)
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(ctx, template))

	got, err := stores.Tasks.GetByID(ctx, template.ID)
	require.NoError(t, err)
	assert.Equal(t, template.Recurrence, got.Recurrence)
	assert.True(t, due.Equal(*got.NextDueDate))

	dueList, err := stores.Tasks.ListDueRecurring(ctx, due)
	require.NoError(t, err)
	require.Len(t, dueList, 1)

	occ, err := domain.NewOccurrence(got, due)
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(ctx, occ))

	next := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)
	require.NoError(t, stores.Tasks.UpdateNextDueDate(ctx, template.ID, next))
	dueList, err = stores.Tasks.ListDueRecurring(ctx, due)
	require.NoError(t, err)
	assert.Empty(t, dueList)

	byIDs, err := stores.Tasks.ListByIDs(ctx, []uuid.UUID{template.ID, occ.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	// Deleting the template keeps the occurrence with a cleared parent.
	require.NoError(t, stores.Tasks.Delete(ctx, template.ID))
	orphan, err := stores.Tasks.GetByID(ctx, occ.ID)
	require.NoError(t, err)
	assert.Nil(t, orphan.ParentTaskID)

	assert.ErrorIs(t, stores.Tasks.Delete(ctx, template.ID), store.ErrTaskNotFound)
}

func TestIntegration_ShareUpsertAndCascade(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	stores := NewStores(db, nil)

	owner := createUser(t, stores, "owner@example.com")
	target := createUser(t, stores, "target@example.com")

	task, err := domain.NewTask(owner.ID, "Shared", "", "")
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(ctx, task))

	first, err := domain.NewShare(task, target.ID, domain.PermissionViewer)
	require.NoError(t, err)
	require.NoError(t, stores.Shares.Upsert(ctx, first))

	second, err := domain.NewShare(task, target.ID, domain.PermissionEditor)
	require.NoError(t, err)
	require.NoError(t, stores.Shares.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID, "re-share keeps the original row")
	shares, err := stores.Shares.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, domain.PermissionEditor, shares[0].Permission)

	require.NoError(t, stores.Shares.Delete(ctx, task.ID, target.ID))
	require.NoError(t, stores.Shares.Delete(ctx, task.ID, target.ID), "delete is idempotent")

	_, err = stores.Shares.Get(ctx, task.ID, target.ID)
	assert.ErrorIs(t, err, store.ErrShareNotFound)
}

func TestIntegration_ConcurrentUpsertConverges(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	stores := NewStores(db, nil)

	owner := createUser(t, stores, "owner@example.com")
	target := createUser(t, stores, "target@example.com")
	task, err := domain.NewTask(owner.ID, "Hot", "", "")
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(ctx, task))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			perm := domain.PermissionViewer
			if i%2 == 0 {
				perm = domain.PermissionEditor
			}
			share, err := domain.NewShare(task, target.ID, perm)
			if err != nil {
				errs <- err
				return
			}
			errs <- stores.Shares.Upsert(ctx, share)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	shares, err := stores.Shares.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, shares, 1)
}

func TestIntegration_RowLockSerializesDelete(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	stores := NewStores(db, nil)
	tx := NewTransactor(db, nil)

	owner := createUser(t, stores, "owner@example.com")
	task, err := domain.NewTask(owner.ID, "Contended", "", "")
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(ctx, task))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- tx.InTx(ctx, func(ctx context.Context, s store.Stores) error {
			if _, err := s.Tasks.GetByIDForUpdate(ctx, task.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return s.Tasks.Delete(ctx, task.ID)
		})
	}()

	<-locked
	updateErr := make(chan error, 1)
	go func() {
		updateErr <- tx.InTx(ctx, func(ctx context.Context, s store.Stores) error {
			_, err := s.Tasks.GetByIDForUpdate(ctx, task.ID)
			return err
		})
	}()

	close(release)
	require.NoError(t, <-done)

	err = <-updateErr
	assert.True(t, errors.Is(err, store.ErrTaskNotFound), "waiter observes the committed delete, got %v", err)
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	stores := NewStores(db, nil)

	createUser(t, stores, "same@example.com")
	dup, err := domain.NewUser("SAME@example.com", "Other")
	require.NoError(t, err)

	assert.ErrorIs(t, stores.Users.Create(context.Background(), dup), store.ErrEmailExists)
}
