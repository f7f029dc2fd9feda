package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskshare/internal/domain"
	"github.com/phrazzld/taskshare/internal/recurring"
	"github.com/phrazzld/taskshare/internal/service"
	"github.com/stretchr/testify/mock"
)

// MockTaskService is a testify mock of service.TaskService.
type MockTaskService struct {
	mock.Mock
}

var _ service.TaskService = (*MockTaskService)(nil)

// CreateTask implements service.TaskService.
func (m *MockTaskService) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	input service.CreateTaskInput,
) (*domain.Task, error) {
	args := m.Called(ctx, ownerID, input)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

// GetTask implements service.TaskService.
func (m *MockTaskService) GetTask(ctx context.Context, requesterID, taskID uuid.UUID) (*domain.VisibleTask, error) {
	args := m.Called(ctx, requesterID, taskID)
	visible, _ := args.Get(0).(*domain.VisibleTask)
	return visible, args.Error(1)
}

// ListVisibleTasks implements service.TaskService.
func (m *MockTaskService) ListVisibleTasks(ctx context.Context, userID uuid.UUID) ([]domain.VisibleTask, error) {
	args := m.Called(ctx, userID)
	visible, _ := args.Get(0).([]domain.VisibleTask)
	return visible, args.Error(1)
}

// UpdateTask implements service.TaskService.
func (m *MockTaskService) UpdateTask(
	ctx context.Context,
	requesterID, taskID uuid.UUID,
	patch domain.TaskPatch,
) (*domain.Task, error) {
	args := m.Called(ctx, requesterID, taskID, patch)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}

// DeleteTask implements service.TaskService.
func (m *MockTaskService) DeleteTask(ctx context.Context, requesterID, taskID uuid.UUID) error {
	return m.Called(ctx, requesterID, taskID).Error(0)
}

// MockShareService is a testify mock of service.ShareService.
type MockShareService struct {
	mock.Mock
}

var _ service.ShareService = (*MockShareService)(nil)

// Share implements service.ShareService.
func (m *MockShareService) Share(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	targetEmail string,
	permission domain.Permission,
) (*domain.Share, error) {
	args := m.Called(ctx, ownerID, taskID, targetEmail, permission)
	share, _ := args.Get(0).(*domain.Share)
	return share, args.Error(1)
}

// Unshare implements service.ShareService.
func (m *MockShareService) Unshare(ctx context.Context, ownerID, taskID, targetUserID uuid.UUID) error {
	return m.Called(ctx, ownerID, taskID, targetUserID).Error(0)
}

// ListShares implements service.ShareService.
func (m *MockShareService) ListShares(ctx context.Context, requesterID, taskID uuid.UUID) ([]domain.ShareDetails, error) {
	args := m.Called(ctx, requesterID, taskID)
	details, _ := args.Get(0).([]domain.ShareDetails)
	return details, args.Error(1)
}

// MockRecurringTaskCreator is a testify mock of the recurring engine's
// creation entry point.
type MockRecurringTaskCreator struct {
	mock.Mock
}

// CreateRecurringTask mirrors recurring.Engine.CreateRecurringTask.
func (m *MockRecurringTaskCreator) CreateRecurringTask(
	ctx context.Context,
	input recurring.RecurringTaskInput,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	args := m.Called(ctx, input, ownerID)
	task, _ := args.Get(0).(*domain.Task)
	return task, args.Error(1)
}
