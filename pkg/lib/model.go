package lib

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/slok/legalflow/internal/model"
)

var (
	// ErrNotFound is returned when a document or task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource with the same ID already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input.
	ErrNotValid = errors.New("not valid")
	// ErrNotAuthenticated is returned when the backend rejects the session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ValidationError is a local validation failure, the request never reached the backend.
type ValidationError = model.ValidationError

// NetworkError is a transport failure or a non 2xx backend response.
type NetworkError = model.NetworkError

// TimeoutError is a backend request that exceeded the request timeout.
type TimeoutError = model.TimeoutError

// ServerTaskError is a task the backend reported as failed.
type ServerTaskError = model.ServerTaskError

// ExportError is a render or download failure of a redline export.
type ExportError = model.ExportError

// JobKind is the type of analysis job.
type JobKind string

const (
	// JobKindAudit is a compliance audit of a document.
	JobKindAudit JobKind = "audit"
	// JobKindResearch is a legal research job over a document.
	JobKindResearch JobKind = "research"
	// JobKindDraft is a draft analysis job.
	JobKindDraft JobKind = "draft"
)

// TaskStatus is the backend reported state of a task.
//
// The lifecycle is:
//
//	pending -> processing -> completed | error
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusError      TaskStatus = "error"
)

// Task is an analysis job on the backend.
type Task struct {
	// ID is the backend assigned task ID.
	ID     string
	Status TaskStatus
	// Progress is an advisory 0-100 percentage.
	Progress int
	// Result is the job payload once completed, its shape depends on the job kind.
	Result json.RawMessage
	// Error is the backend message when the task failed.
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

// TaskState is a snapshot of a task submission while it's polled.
type TaskState struct {
	Phase PollPhase
	// Task is the last known task, nil until the submission succeeds.
	Task *Task
	// ActiveTaskID is the task being polled. It's kept when polling fails so
	// the task can be awaited again with [Client.WaitTask].
	ActiveTaskID        string
	Err                 error
	ConsecutiveFailures int
}

// DocumentSource is where a vault document came from.
type DocumentSource string

const (
	DocumentSourceUpload DocumentSource = "upload"
	DocumentSourceFile   DocumentSource = "file"
	DocumentSourceInline DocumentSource = "inline"
)

// Document is a document stored in the local vault.
type Document struct {
	// ID is the unique identifier (ULID) assigned when saved.
	ID        string
	Name      string
	Text      string
	PageCount int
	Source    DocumentSource
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Analysis is the final state of a task run over a vault document.
type Analysis struct {
	ID           string
	DocumentID   string
	Kind         JobKind
	RemoteTaskID string
	Status       TaskStatus
	Result       json.RawMessage
	Error        string
	CreatedAt    time.Time
}

// DocumentDetails is a vault document with its analyses, oldest first.
type DocumentDetails struct {
	Document Document
	Analyses []Analysis
}

// ChangeType is the type of a redline change.
type ChangeType string

const (
	ChangeTypeInsertion ChangeType = "insertion"
	ChangeTypeDeletion  ChangeType = "deletion"
)

// TextChange is one atomic edit of a document buffer.
//
// Position is a character offset only valid on the buffer as it was right before the change.
type TextChange struct {
	ID        string
	Type      ChangeType
	Content   string
	Position  int
	Timestamp time.Time
}

// ExportArtifact is a rendered redline document.
type ExportArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DiffMode is the strategy used to detect the edits between two buffer states.
type DiffMode string

const (
	// DiffModeMyers computes a minimal diff of the full buffers (default).
	DiffModeMyers DiffMode = "myers"
	// DiffModeLengthDelta only uses the length change and the cursor, it's only
	// correct for single keystroke edits.
	DiffModeLengthDelta DiffMode = "length-delta"
)

// --- Internal conversion helpers ---

func fromInternalTask(t model.Task) Task {
	return Task{
		ID:        t.ID,
		Status:    TaskStatus(t.Status),
		Progress:  t.Progress,
		Result:    t.Result,
		Error:     t.Error,
		UpdatedAt: t.UpdatedAt,
	}
}

func fromInternalTaskPtr(t *model.Task) *Task {
	if t == nil {
		return nil
	}
	task := fromInternalTask(*t)
	return &task
}

func fromInternalTaskState(s model.TaskState) TaskState {
	return TaskState{
		Phase:               PollPhase(s.Phase),
		Task:                fromInternalTaskPtr(s.Task),
		ActiveTaskID:        s.ActiveTaskID,
		Err:                 mapError(s.Err),
		ConsecutiveFailures: s.ConsecutiveFailures,
	}
}

func onStateFunc(fn func(TaskState)) func(model.TaskState) {
	if fn == nil {
		return nil
	}
	return func(s model.TaskState) { fn(fromInternalTaskState(s)) }
}

func fromInternalDocument(d model.Document) Document {
	return Document{
		ID:        d.ID,
		Name:      d.Name,
		Text:      d.Text,
		PageCount: d.PageCount,
		Source:    DocumentSource(d.Source),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func fromInternalDocumentPtr(d *model.Document) *Document {
	if d == nil {
		return nil
	}
	doc := fromInternalDocument(*d)
	return &doc
}

func fromInternalDocumentList(ds []model.Document) []Document {
	result := make([]Document, len(ds))
	for i, d := range ds {
		result[i] = fromInternalDocument(d)
	}
	return result
}

func fromInternalAnalysis(a model.Analysis) Analysis {
	return Analysis{
		ID:           a.ID,
		DocumentID:   a.DocumentID,
		Kind:         JobKind(a.Kind),
		RemoteTaskID: a.RemoteTaskID,
		Status:       TaskStatus(a.Status),
		Result:       a.Result,
		Error:        a.Error,
		CreatedAt:    a.CreatedAt,
	}
}

func fromInternalAnalysisList(as []model.Analysis) []Analysis {
	result := make([]Analysis, len(as))
	for i, a := range as {
		result[i] = fromInternalAnalysis(a)
	}
	return result
}

func fromInternalChangeList(cs []model.TextChange) []TextChange {
	result := make([]TextChange, len(cs))
	for i, c := range cs {
		result[i] = TextChange{
			ID:        c.ID,
			Type:      ChangeType(c.Type),
			Content:   c.Content,
			Position:  c.Position,
			Timestamp: c.Timestamp,
		}
	}
	return result
}

func fromInternalExportArtifact(a *model.ExportArtifact) *ExportArtifact {
	if a == nil {
		return nil
	}
	return &ExportArtifact{
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Data:        a.Data,
	}
}

// mapError makes the internal sentinel errors match the SDK ones, the typed errors
// are aliases so they keep working with errors.As.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrNotAuthenticated):
		return joinErrors(err, ErrNotAuthenticated)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
