package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrNotAuthenticated is returned when the backend rejects the session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError is a local validation failure, it never reaches the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrNotValid }

// NetworkError is a transport failure or a non 2xx response.
type NetworkError struct {
	Op         string
	StatusCode int // 0 when the request didn't get a response.
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError is a client enforced request timeout.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: timed out after %s", e.Op, e.Timeout)
}

// ServerTaskError is a task the backend reported as failed.
type ServerTaskError struct {
	TaskID  string
	Message string
}

func (e *ServerTaskError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("task %s failed: %s", e.TaskID, msg)
}

// ExportError is a render or download failure of a redline export.
type ExportError struct {
	Err error
}

func (e *ExportError) Error() string { return fmt.Sprintf("could not export document: %s", e.Err) }

func (e *ExportError) Unwrap() error { return e.Err }

// IsRetryable returns true for failures that can be retried automatically while polling.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return false
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}

	var ne *NetworkError
	if !errors.As(err, &ne) {
		return false
	}
	switch {
	case ne.StatusCode == 0, ne.StatusCode >= 500:
		return true
	case ne.StatusCode == 408, ne.StatusCode == 429:
		return true
	}
	return false
}
