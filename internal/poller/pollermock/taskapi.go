package pollermock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/slok/legalflow/internal/model"
)

// MockTaskAPI is a mock of poller.TaskAPI.
type MockTaskAPI struct {
	mock.Mock
}

// SubmitTask provides a mock function with given fields: ctx, kind, payload
func (_m *MockTaskAPI) SubmitTask(ctx context.Context, kind model.JobKind, payload model.SubmitPayload) (*model.Task, error) {
	ret := _m.Called(ctx, kind, payload)

	if rf, ok := ret.Get(0).(func(context.Context, model.JobKind, model.SubmitPayload) (*model.Task, error)); ok {
		return rf(ctx, kind, payload)
	}

	var r0 *model.Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Task)
	}

	return r0, ret.Error(1)
}

// GetTaskResult provides a mock function with given fields: ctx, kind, taskID
func (_m *MockTaskAPI) GetTaskResult(ctx context.Context, kind model.JobKind, taskID string) (*model.Task, error) {
	ret := _m.Called(ctx, kind, taskID)

	if rf, ok := ret.Get(0).(func(context.Context, model.JobKind, string) (*model.Task, error)); ok {
		return rf(ctx, kind, taskID)
	}

	var r0 *model.Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Task)
	}

	return r0, ret.Error(1)
}
