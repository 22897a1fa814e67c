package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/legalflow/internal/model"
)

func TestIsRetryable(t *testing.T) {
	tests := map[string]struct {
		err    error
		expRes bool
	}{
		"No error should not be retryable.": {
			err:    nil,
			expRes: false,
		},
		"A timeout should be retryable.": {
			err:    fmt.Errorf("polling: %w", &model.TimeoutError{Op: "poll", Timeout: time.Second}),
			expRes: true,
		},
		"A transport error should be retryable.": {
			err:    &model.NetworkError{Op: "poll", Err: errors.New("connection refused")},
			expRes: true,
		},
		"A server side error should be retryable.": {
			err:    &model.NetworkError{Op: "poll", StatusCode: 503, Err: errors.New("unavailable")},
			expRes: true,
		},
		"A too many requests error should be retryable.": {
			err:    &model.NetworkError{Op: "poll", StatusCode: 429, Err: errors.New("slow down")},
			expRes: true,
		},
		"A not found error should not be retryable.": {
			err:    &model.NetworkError{Op: "poll", StatusCode: 404, Err: errors.New("missing")},
			expRes: false,
		},
		"An authentication error should not be retryable.": {
			err:    &model.NetworkError{Op: "poll", StatusCode: 401, Err: model.ErrNotAuthenticated},
			expRes: false,
		},
		"A server task error should not be retryable.": {
			err:    &model.ServerTaskError{TaskID: "abc123", Message: "boom"},
			expRes: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expRes, model.IsRetryable(test.err))
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	assert := assert.New(t)

	var verr error = &model.ValidationError{Field: "documentText", Reason: "too short"}
	assert.ErrorIs(verr, model.ErrNotValid)

	var nerr error = &model.NetworkError{Op: "submit", StatusCode: 401, Err: model.ErrNotAuthenticated}
	assert.ErrorIs(fmt.Errorf("wrapped: %w", nerr), model.ErrNotAuthenticated)

	var eerr error = &model.ExportError{Err: nerr}
	assert.ErrorIs(eerr, model.ErrNotAuthenticated)
	assert.Contains(eerr.Error(), "could not export document")
}
