package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/mocks"
	"github.com/phrazzld/taskshare/internal/platform/cache"
	"github.com/phrazzld/taskshare/internal/platform/logger"
	"github.com/phrazzld/taskshare/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fixture wires both services to an in-memory store and a miniredis cache.
type fixture struct {
	mem    *mocks.MemoryStore
	mr     *miniredis.Miniredis
	cache  *cache.Cache
	tasks  service.TaskService
	shares service.ShareService
	logs   *logger.TestLogBuffer

	owner    *domain.User
	alice    *domain.User
	bob      *domain.User
	stranger *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	log, buf := logger.NewTestLogger(t)
	c := cache.New(cache.NewRedisBackend(client), cache.Options{
		DefaultTTL:       time.Minute,
		OperationTimeout: time.Second,
	}, log)

	mem := mocks.NewMemoryStore()

	tasks, err := service.NewTaskService(mem.Stores(), mem, c, 0, log)
	require.NoError(t, err)
	shares, err := service.NewShareService(mem.Stores(), mem, c, log)
	require.NoError(t, err)

	return &fixture{
		mem:      mem,
		mr:       mr,
		cache:    c,
		tasks:    tasks,
		shares:   shares,
		logs:     buf,
		owner:    mem.AddUser("owner@example.com", "Olive Owner"),
		alice:    mem.AddUser("alice@example.com", "Alice"),
		bob:      mem.AddUser("bob@example.com", "Bob"),
		stranger: mem.AddUser("stranger@example.com", "Stan"),
	}
}

// seedTask stores a one-shot task owned by owner.
func (f *fixture) seedTask(t *testing.T, owner *domain.User, title string) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(owner.ID, title, "", domain.PriorityMedium)
	require.NoError(t, err)
	f.mem.PutTask(task)
	return task
}

// seedShare shares task with target directly through the store.
func (f *fixture) seedShare(t *testing.T, task *domain.Task, target *domain.User, perm domain.Permission) {
	t.Helper()

	share, err := domain.NewShare(task, target.ID, perm)
	require.NoError(t, err)
	require.NoError(t, f.mem.Stores().Shares.Upsert(context.Background(), share))
}

// prime caches an empty listing for each user so invalidation can be observed.
func (f *fixture) prime(t *testing.T, users ...*domain.User) {
	t.Helper()

	for _, u := range users {
		f.cache.Set(context.Background(), cache.TaskListKey(u.ID), []domain.VisibleTask{}, 0)
		require.True(t, f.mr.Exists(cache.TaskListKey(u.ID)), "listing for %s not primed", u.Email)
	}
}

func (f *fixture) cached(u *domain.User) bool {
	return f.mr.Exists(cache.TaskListKey(u.ID))
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }
