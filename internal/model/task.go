package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobKind is the type of analysis job submitted to the backend.
type JobKind string

const (
	// JobKindAudit is a compliance audit of a document.
	JobKindAudit JobKind = "audit"
	// JobKindResearch is a legal research job over a document.
	JobKindResearch JobKind = "research"
	// JobKindDraft is a draft analysis job.
	JobKindDraft JobKind = "draft"
)

// JobKinds returns all the supported job kinds.
func JobKinds() []JobKind {
	return []JobKind{JobKindAudit, JobKindResearch, JobKindDraft}
}

// Validate checks the job kind is a known one.
func (k JobKind) Validate() error {
	switch k {
	case JobKindAudit, JobKindResearch, JobKindDraft:
		return nil
	}
	return fmt.Errorf("unknown job kind %q: %w", k, ErrNotValid)
}

// TaskStatus represents the backend reported state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
)

// IsTerminal returns true when no more polling is required for the status.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// Task is one submitted analysis job tracked by polling.
type Task struct {
	ID       string
	Status   TaskStatus
	Progress int // 0-100, advisory.
	// Result is the job payload once the task is completed, its shape depends on the job kind.
	Result    json.RawMessage
	Error     string
	UpdatedAt time.Time
}

// PollPhase is the client side phase of a task submission.
type PollPhase string

const (
	PollPhaseIdle       PollPhase = "idle"
	PollPhaseSubmitting PollPhase = "submitting"
	PollPhasePolling    PollPhase = "polling"
	PollPhaseCompleted  PollPhase = "completed"
	PollPhaseError      PollPhase = "error"
)

// IsTerminal returns true if the phase will not change without a consumer action.
func (p PollPhase) IsTerminal() bool {
	return p == PollPhaseIdle || p == PollPhaseCompleted || p == PollPhaseError
}

// TaskState is the full state of a task submission at a point in time.
type TaskState struct {
	Phase PollPhase
	// Task is the last known task, nil until a submission succeeds.
	Task *Task
	// ActiveTaskID is the task being polled. It's cleared on terminal task status
	// and kept when polling failures are surfaced so polling can be resumed.
	ActiveTaskID string
	// Payload is the last submitted payload, kept so a failure can be retried without re-entering it.
	Payload             *SubmitPayload
	Err                 error
	ConsecutiveFailures int
}

// CanResume returns true if the state has a task that can keep being polled.
func (s TaskState) CanResume() bool {
	return s.Phase == PollPhaseError && s.ActiveTaskID != ""
}
