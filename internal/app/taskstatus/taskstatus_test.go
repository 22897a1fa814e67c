package taskstatus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/legalflow/internal/app/taskstatus"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/poller/pollermock"
)

func TestService_Run(t *testing.T) {
	tests := map[string]struct {
		mock      func(m *pollermock.MockTaskAPI)
		req       taskstatus.Request
		expStatus model.TaskStatus
		expErr    error
		expErrAs  any
	}{
		"A missing task id should fail.": {
			mock:   func(m *pollermock.MockTaskAPI) {},
			req:    taskstatus.Request{},
			expErr: model.ErrNotValid,
		},
		"A single check should return the current status.": {
			mock: func(m *pollermock.MockTaskAPI) {
				m.On("GetTaskResult", mock.Anything, model.JobKindAudit, "abc123").Once().Return(&model.Task{ID: "abc123", Status: model.TaskStatusProcessing, Progress: 40}, nil)
			},
			req:       taskstatus.Request{Kind: model.JobKindAudit, TaskID: "abc123"},
			expStatus: model.TaskStatusProcessing,
		},
		"A single check of a rejected session should fail.": {
			mock: func(m *pollermock.MockTaskAPI) {
				m.On("GetTaskResult", mock.Anything, model.JobKindAudit, "abc123").Once().Return(nil, &model.NetworkError{Op: "get task result", StatusCode: 401, Err: model.ErrNotAuthenticated})
			},
			req:    taskstatus.Request{Kind: model.JobKindAudit, TaskID: "abc123"},
			expErr: model.ErrNotAuthenticated,
		},
		"Waiting should poll until the task completes.": {
			mock: func(m *pollermock.MockTaskAPI) {
				m.On("GetTaskResult", mock.Anything, model.JobKindResearch, "abc123").Twice().Return(&model.Task{ID: "abc123", Status: model.TaskStatusProcessing}, nil)
				m.On("GetTaskResult", mock.Anything, model.JobKindResearch, "abc123").Once().Return(&model.Task{ID: "abc123", Status: model.TaskStatusCompleted}, nil)
			},
			req:       taskstatus.Request{Kind: model.JobKindResearch, TaskID: "abc123", Wait: true},
			expStatus: model.TaskStatusCompleted,
		},
		"Waiting on a failing task should return the task and the error.": {
			mock: func(m *pollermock.MockTaskAPI) {
				m.On("GetTaskResult", mock.Anything, model.JobKindDraft, "abc123").Once().Return(&model.Task{ID: "abc123", Status: model.TaskStatusError, Error: "boom"}, nil)
			},
			req:       taskstatus.Request{Kind: model.JobKindDraft, TaskID: "abc123", Wait: true},
			expStatus: model.TaskStatusError,
			expErrAs:  new(*model.ServerTaskError),
		},
		"Waiting on an unreachable backend should fail after the failure budget.": {
			mock: func(m *pollermock.MockTaskAPI) {
				m.On("GetTaskResult", mock.Anything, model.JobKindAudit, "abc123").Times(3).Return(nil, &model.NetworkError{Op: "get task result", Err: errors.New("connection refused")})
			},
			req:      taskstatus.Request{Kind: model.JobKindAudit, TaskID: "abc123", Wait: true},
			expErrAs: new(*model.NetworkError),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &pollermock.MockTaskAPI{}
			test.mock(m)

			svc, err := taskstatus.NewService(taskstatus.ServiceConfig{
				Client:          m,
				PollInterval:    time.Millisecond,
				RequestTimeout:  time.Second,
				MaxPollFailures: 3,
				Backoff:         func() backoff.BackOff { return &backoff.ZeroBackOff{} },
			})
			require.NoError(err)

			task, err := svc.Run(context.Background(), test.req)
			m.AssertExpectations(t)

			switch {
			case test.expErr != nil:
				assert.ErrorIs(err, test.expErr)
			case test.expErrAs != nil:
				assert.ErrorAs(err, test.expErrAs)
			default:
				assert.NoError(err)
			}

			if test.expStatus != "" {
				require.NotNil(task)
				assert.Equal(test.expStatus, task.Status)
			}
		})
	}
}
