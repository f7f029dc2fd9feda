package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/store"
)

// FaultFn decides whether an operation on the entity with the given ID should
// fail. Returning nil lets the operation proceed.
type FaultFn func(id uuid.UUID) error

// Operation names accepted by MemoryStore.SetFault.
const (
	OpTaskCreate            = "tasks.Create"
	OpTaskGet               = "tasks.GetByID"
	OpTaskUpdate            = "tasks.Update"
	OpTaskUpdateNextDueDate = "tasks.UpdateNextDueDate"
	OpTaskDelete            = "tasks.Delete"
	OpTaskListByOwner       = "tasks.ListByOwner"
	OpTaskListDueRecurring  = "tasks.ListDueRecurring"
	OpShareUpsert           = "shares.Upsert"
	OpShareDelete           = "shares.Delete"
	OpShareListSharedWith   = "shares.ListSharedWith"
	OpUserGetByEmail        = "users.GetByEmail"
)

type shareKey struct {
	taskID uuid.UUID
	userID uuid.UUID
}

// MemoryStore is an in-memory implementation of store.TaskStore,
// store.ShareStore, store.UserStore and store.Transactor for unit tests.
//
// Transactions are serialized: InTx holds an exclusive lock for the whole
// callback, which gives the same outcome as row locks for tests that run
// conflicting operations concurrently. A failed callback restores the state
// captured when it began. Operations outside InTx do not wait for a running
// transaction.
//
// Like the PostgreSQL schema, deleting a task removes its shares and clears
// ParentTaskID on its occurrences, and a share must reference an existing task.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	tasks  map[uuid.UUID]*domain.Task
	shares map[shareKey]*domain.Share
	users  map[uuid.UUID]*domain.User
	faults map[string]FaultFn

	txCount int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:  make(map[uuid.UUID]*domain.Task),
		shares: make(map[shareKey]*domain.Share),
		users:  make(map[uuid.UUID]*domain.User),
		faults: make(map[string]FaultFn),
	}
}

// Stores returns the store bundle backed by m.
func (m *MemoryStore) Stores() store.Stores {
	return store.Stores{
		Tasks:  (*memoryTasks)(m),
		Shares: (*memoryShares)(m),
		Users:  (*memoryUsers)(m),
	}
}

// SetFault installs fn for op. A nil fn removes the fault.
func (m *MemoryStore) SetFault(op string, fn FaultFn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.faults, op)
		return
	}
	m.faults[op] = fn
}

// FailAlways makes every call of op return err.
func (m *MemoryStore) FailAlways(op string, err error) {
	m.SetFault(op, func(uuid.UUID) error { return err })
}

// TxCount reports how many transactions have been started.
func (m *MemoryStore) TxCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.txCount
}

// TaskCount reports how many tasks are stored.
func (m *MemoryStore) TaskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// AddUser stores a user with the given email and returns it.
func (m *MemoryStore) AddUser(email, name string) *domain.User {
	user, err := domain.NewUser(email, name)
	if err != nil {
		panic("mocks: invalid user fixture: " + err.Error())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return user
}

// PutTask stores task as-is, bypassing validation. Tests use it to seed state.
func (m *MemoryStore) PutTask(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task.Clone()
}

// Task returns a copy of the stored task or nil.
func (m *MemoryStore) Task(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id].Clone()
}

// AllTasks returns copies of every stored task, oldest first.
func (m *MemoryStore) AllTasks() []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// InTx implements store.Transactor.
func (m *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx store.Stores) error) (err error) {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.txCount++
	snap := m.snapshotLocked()
	m.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			m.restore(snap)
			panic(p)
		}
		if err != nil {
			m.restore(snap)
		}
	}()

	return fn(ctx, m.Stores())
}

type snapshot struct {
	tasks  map[uuid.UUID]*domain.Task
	shares map[shareKey]*domain.Share
	users  map[uuid.UUID]*domain.User
}

func (m *MemoryStore) snapshotLocked() snapshot {
	s := snapshot{
		tasks:  make(map[uuid.UUID]*domain.Task, len(m.tasks)),
		shares: make(map[shareKey]*domain.Share, len(m.shares)),
		users:  make(map[uuid.UUID]*domain.User, len(m.users)),
	}
	for k, v := range m.tasks {
		s.tasks[k] = v.Clone()
	}
	for k, v := range m.shares {
		c := *v
		s.shares[k] = &c
	}
	for k, v := range m.users {
		c := *v
		s.users[k] = &c
	}
	return s
}

func (m *MemoryStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks, m.shares, m.users = s.tasks, s.shares, s.users
}

// faultLocked must be called with m.mu held.
func (m *MemoryStore) faultLocked(op string, id uuid.UUID) error {
	if fn, ok := m.faults[op]; ok {
		return fn(id)
	}
	return nil
}

var _ store.Transactor = (*MemoryStore)(nil)

// memoryTasks implements store.TaskStore.
type memoryTasks MemoryStore

var _ store.TaskStore = (*memoryTasks)(nil)

func (s *memoryTasks) Create(_ context.Context, task *domain.Task) error {
	m := (*MemoryStore)(s)
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpTaskCreate, task.ID); err != nil {
		return err
	}
	if _, exists := m.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	if task.ParentTaskID != nil {
		if _, ok := m.tasks[*task.ParentTaskID]; !ok {
			return store.ErrInvalidEntity
		}
	}
	m.tasks[task.ID] = task.Clone()
	return nil
}

func (s *memoryTasks) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpTaskGet, id); err != nil {
		return nil, err
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task.Clone(), nil
}

// GetByIDForUpdate needs no extra locking: InTx already serializes.
func (s *memoryTasks) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id)
}

func (s *memoryTasks) Update(_ context.Context, task *domain.Task) error {
	m := (*MemoryStore)(s)
	if err := task.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpTaskUpdate, task.ID); err != nil {
		return err
	}
	stored, ok := m.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	stored.Title = task.Title
	stored.Description = task.Description
	stored.Completed = task.Completed
	stored.Priority = task.Priority
	stored.UpdatedAt = task.UpdatedAt
	return nil
}

func (s *memoryTasks) UpdateNextDueDate(_ context.Context, id uuid.UUID, next time.Time) error {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpTaskUpdateNextDueDate, id); err != nil {
		return err
	}
	stored, ok := m.tasks[id]
	if !ok || !stored.IsRecurring {
		return store.ErrTaskNotFound
	}
	due := next.UTC()
	stored.NextDueDate = &due
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memoryTasks) Delete(_ context.Context, id uuid.UUID) error {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpTaskDelete, id); err != nil {
		return err
	}
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	for k := range m.shares {
		if k.taskID == id {
			delete(m.shares, k)
		}
	}
	for _, t := range m.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == id {
			t.ParentTaskID = nil
		}
	}
	return nil
}

func (s *memoryTasks) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpTaskListByOwner, ownerID); err != nil {
		return nil, err
	}
	var out []*domain.Task
	for _, t := range m.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *memoryTasks) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.Task, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[uuid.UUID]struct{}, len(ids))
	var out []*domain.Task
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if t, ok := m.tasks[id]; ok {
			out = append(out, t.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *memoryTasks) ListDueRecurring(_ context.Context, now time.Time) ([]*domain.Task, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpTaskListDueRecurring, uuid.Nil); err != nil {
		return nil, err
	}
	var out []*domain.Task
	for _, t := range m.tasks {
		if t.IsDue(now) {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextDueDate.Equal(*out[j].NextDueDate) {
			return out[i].NextDueDate.Before(*out[j].NextDueDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func sortNewestFirst(tasks []*domain.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID.String() < tasks[j].ID.String()
	})
}

// memoryShares implements store.ShareStore.
type memoryShares MemoryStore

var _ store.ShareStore = (*memoryShares)(nil)

func (s *memoryShares) Upsert(_ context.Context, share *domain.Share) error {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpShareUpsert, share.TaskID); err != nil {
		return err
	}
	if _, ok := m.tasks[share.TaskID]; !ok {
		return store.ErrInvalidEntity
	}
	if !share.Permission.IsValid() || share.OwnerID == share.SharedWithUserID {
		return store.ErrInvalidEntity
	}

	key := shareKey{taskID: share.TaskID, userID: share.SharedWithUserID}
	if existing, ok := m.shares[key]; ok {
		existing.Permission = share.Permission
		existing.UpdatedAt = share.UpdatedAt
		*share = *existing
		return nil
	}
	c := *share
	m.shares[key] = &c
	return nil
}

func (s *memoryShares) Get(_ context.Context, taskID, userID uuid.UUID) (*domain.Share, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	share, ok := m.shares[shareKey{taskID: taskID, userID: userID}]
	if !ok {
		return nil, store.ErrShareNotFound
	}
	c := *share
	return &c, nil
}

func (s *memoryShares) Delete(_ context.Context, taskID, userID uuid.UUID) error {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpShareDelete, taskID); err != nil {
		return err
	}
	delete(m.shares, shareKey{taskID: taskID, userID: userID})
	return nil
}

func (s *memoryShares) DeleteByTask(_ context.Context, taskID uuid.UUID) (int64, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k := range m.shares {
		if k.taskID == taskID {
			delete(m.shares, k)
			n++
		}
	}
	return n, nil
}

func (s *memoryShares) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.Share, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Share
	for k, v := range m.shares {
		if k.taskID == taskID {
			c := *v
			out = append(out, &c)
		}
	}
	sortShares(out)
	return out, nil
}

func (s *memoryShares) ListSharedWith(_ context.Context, userID uuid.UUID) ([]*domain.Share, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpShareListSharedWith, userID); err != nil {
		return nil, err
	}
	var out []*domain.Share
	for k, v := range m.shares {
		if k.userID == userID {
			c := *v
			out = append(out, &c)
		}
	}
	sortShares(out)
	return out, nil
}

func sortShares(shares []*domain.Share) {
	sort.Slice(shares, func(i, j int) bool {
		if !shares[i].SharedAt.Equal(shares[j].SharedAt) {
			return shares[i].SharedAt.Before(shares[j].SharedAt)
		}
		return shares[i].ID.String() < shares[j].ID.String()
	})
}

// memoryUsers implements store.UserStore.
type memoryUsers MemoryStore

var _ store.UserStore = (*memoryUsers)(nil)

func (s *memoryUsers) Create(_ context.Context, user *domain.User) error {
	m := (*MemoryStore)(s)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := user.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	c := *user
	m.users[user.ID] = &c
	return nil
}

func (s *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	c := *user
	return &c, nil
}

func (s *memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m := (*MemoryStore)(s)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.faultLocked(OpUserGetByEmail, uuid.Nil); err != nil {
		return nil, err
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == normalized {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrUserNotFound
}
