package permission_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/mocks"
	"github.com/phrazzld/taskshare/internal/permission"
	"github.com/phrazzld/taskshare/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fixture struct {
	mem      *mocks.MemoryStore
	resolver *permission.Resolver
	owner    *domain.User
	editor   *domain.User
	viewer   *domain.User
	stranger *domain.User
	task     *domain.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := mocks.NewMemoryStore()
	f := &fixture{
		mem:      mem,
		owner:    mem.AddUser("owner@example.com", "Owner"),
		editor:   mem.AddUser("editor@example.com", "Editor"),
		viewer:   mem.AddUser("viewer@example.com", "Viewer"),
		stranger: mem.AddUser("stranger@example.com", "Stranger"),
	}
	stores := mem.Stores()
	f.resolver = permission.NewResolver(stores.Tasks, stores.Shares, nil)

	task, err := domain.NewTask(f.owner.ID, "Quarterly plan", "", domain.PriorityHigh)
	require.NoError(t, err)
	require.NoError(t, stores.Tasks.Create(context.Background(), task))
	f.task = task

	f.share(t, task, f.editor.ID, domain.PermissionEditor)
	f.share(t, task, f.viewer.ID, domain.PermissionViewer)
	return f
}

func (f *fixture) share(t *testing.T, task *domain.Task, userID uuid.UUID, perm domain.Permission) {
	t.Helper()
	share, err := domain.NewShare(task, userID, perm)
	require.NoError(t, err)
	require.NoError(t, f.mem.Stores().Shares.Upsert(context.Background(), share))
}

func TestResolver_Roles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		userID    uuid.UUID
		role      domain.Role
		canView   bool
		canEdit   bool
		canDelete bool
	}{
		{name: "owner", userID: f.owner.ID, role: domain.RoleOwner, canView: true, canEdit: true, canDelete: true},
		{name: "editor", userID: f.editor.ID, role: domain.RoleEditor, canView: true, canEdit: true},
		{name: "viewer", userID: f.viewer.ID, role: domain.RoleViewer, canView: true},
		{name: "stranger", userID: f.stranger.ID, role: domain.RoleNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			role, err := f.resolver.ResolveAccess(ctx, tc.userID, f.task.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.role, role)

			canView, err := f.resolver.CanView(ctx, tc.userID, f.task.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.canView, canView)

			canEdit, err := f.resolver.CanEdit(ctx, tc.userID, f.task.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.canEdit, canEdit)

			canDelete, err := f.resolver.CanDelete(ctx, tc.userID, f.task.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.canDelete, canDelete)
		})
	}
}

func TestResolver_MissingTaskIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.resolver.ResolveAccess(ctx, f.owner.ID, missing)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = f.resolver.CanEdit(ctx, f.owner.ID, missing)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = f.resolver.CanDelete(ctx, f.owner.ID, missing)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestResolver_ReshareUpdatesRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.share(t, f.task, f.viewer.ID, domain.PermissionEditor)

	role, err := f.resolver.ResolveAccess(ctx, f.viewer.ID, f.task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEditor, role)
}

func TestResolver_VisibleTaskAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stores := f.mem.Stores()

	own, err := domain.NewTask(f.viewer.ID, "Viewer's own", "", "")
	require.NoError(t, err)
	own.CreatedAt = own.CreatedAt.Add(time.Second)
	require.NoError(t, stores.Tasks.Create(ctx, own))

	visible, err := f.resolver.VisibleTaskAccess(ctx, f.viewer.ID)
	require.NoError(t, err)
	require.Len(t, visible, 2)

	assert.Equal(t, own.ID, visible[0].Task.ID, "owned tasks come first")
	assert.Equal(t, domain.RoleOwner, visible[0].Role)
	assert.True(t, visible[0].CanEdit)

	assert.Equal(t, f.task.ID, visible[1].Task.ID)
	assert.Equal(t, domain.RoleViewer, visible[1].Role)
	assert.False(t, visible[1].CanEdit)

	tasks, err := f.resolver.VisibleTasks(ctx, f.viewer.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)

	none, err := f.resolver.VisibleTaskAccess(ctx, f.stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// selfShares reports an extra share of the owner's own task, which the
// schema forbids but the resolver must still collapse to a single owner entry.
type selfShares struct {
	store.ShareStore
	extra *domain.Share
}

func (s selfShares) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]*domain.Share, error) {
	shares, err := s.ShareStore.ListSharedWith(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.extra.SharedWithUserID == userID {
		shares = append(shares, s.extra)
	}
	return shares, nil
}

func TestResolver_OwnerWinsOnDuplicate(t *testing.T) {
	f := newFixture(t)
	stores := f.mem.Stores()

	dup := &domain.Share{
		ID:               uuid.New(),
		TaskID:           f.task.ID,
		OwnerID:          f.owner.ID,
		SharedWithUserID: f.owner.ID,
		Permission:       domain.PermissionViewer,
	}
	resolver := permission.NewResolver(stores.Tasks, selfShares{ShareStore: stores.Shares, extra: dup}, nil)

	visible, err := resolver.VisibleTaskAccess(context.Background(), f.owner.ID)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, domain.RoleOwner, visible[0].Role)
}

func TestResolver_StoreFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("connection refused")

	f.mem.FailAlways(mocks.OpShareListSharedWith, boom)
	_, err := f.resolver.VisibleTaskAccess(ctx, f.viewer.ID)
	assert.ErrorIs(t, err, boom)

	f.mem.SetFault(mocks.OpShareListSharedWith, nil)
	f.mem.FailAlways(mocks.OpTaskListByOwner, boom)
	_, err = f.resolver.VisibleTasks(ctx, f.viewer.ID)
	assert.ErrorIs(t, err, boom)
}

// TestResolver_VisibilityProperties checks, over random share graphs, that
// every listed task is listed once with the role ResolveAccess reports, and
// that exactly the owned or shared tasks are listed.
func TestResolver_VisibilityProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx := context.Background()
		mem := mocks.NewMemoryStore()
		stores := mem.Stores()
		resolver := permission.NewResolver(stores.Tasks, stores.Shares, nil)

		userCount := rapid.IntRange(2, 5).Draw(rt, "users")
		users := make([]*domain.User, userCount)
		for i := range users {
			users[i] = mem.AddUser(uuid.NewString()+"@example.com", "")
		}

		taskCount := rapid.IntRange(0, 8).Draw(rt, "tasks")
		tasks := make([]*domain.Task, taskCount)
		for i := range tasks {
			owner := users[rapid.IntRange(0, userCount-1).Draw(rt, "owner")]
			task, err := domain.NewTask(owner.ID, "t", "", "")
			if err != nil {
				rt.Fatalf("fixture: %v", err)
			}
			if err := stores.Tasks.Create(ctx, task); err != nil {
				rt.Fatalf("fixture: %v", err)
			}
			tasks[i] = task
		}

		shareCount := rapid.IntRange(0, 12).Draw(rt, "shares")
		for i := 0; i < shareCount && taskCount > 0; i++ {
			task := tasks[rapid.IntRange(0, taskCount-1).Draw(rt, "share_task")]
			target := users[rapid.IntRange(0, userCount-1).Draw(rt, "share_target")]
			if target.ID == task.OwnerID {
				continue
			}
			perm := rapid.SampledFrom([]domain.Permission{domain.PermissionViewer, domain.PermissionEditor}).
				Draw(rt, "permission")
			share, err := domain.NewShare(task, target.ID, perm)
			if err != nil {
				rt.Fatalf("fixture: %v", err)
			}
			if err := stores.Shares.Upsert(ctx, share); err != nil {
				rt.Fatalf("fixture: %v", err)
			}
		}

		user := users[rapid.IntRange(0, userCount-1).Draw(rt, "viewer")]
		visible, err := resolver.VisibleTaskAccess(ctx, user.ID)
		if err != nil {
			rt.Fatalf("VisibleTaskAccess: %v", err)
		}

		listed := make(map[uuid.UUID]domain.Role)
		for _, v := range visible {
			if _, dup := listed[v.Task.ID]; dup {
				rt.Fatalf("task %s listed twice", v.Task.ID)
			}
			listed[v.Task.ID] = v.Role
			if v.CanEdit != v.Role.CanEdit() {
				rt.Fatalf("task %s: CanEdit %v disagrees with role %s", v.Task.ID, v.CanEdit, v.Role)
			}
		}

		for _, task := range tasks {
			role, err := resolver.ResolveAccess(ctx, user.ID, task.ID)
			if err != nil {
				rt.Fatalf("ResolveAccess: %v", err)
			}
			listedRole, isListed := listed[task.ID]
			if role.CanView() != isListed {
				rt.Fatalf("task %s: role %s but listed=%v", task.ID, role, isListed)
			}
			if isListed && listedRole != role {
				rt.Fatalf("task %s: listed as %s, resolved as %s", task.ID, listedRole, role)
			}
		}
	})
}
