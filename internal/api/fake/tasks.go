package fake

import (
	"sync"

	"github.com/google/uuid"

	"github.com/slok/legalflow/internal/model"
)

type task struct {
	id       string
	kind     model.JobKind
	text     string
	metadata map[string]any
	polls    int
	status   model.TaskStatus
	data     any
	err      string
}

// resultResponse is the wire response of the task result endpoint.
type resultResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
}

// taskService manages the fake async analysis tasks, every poll advances a task one step.
type taskService struct {
	steps    int
	analyzer Analyzer

	mu    sync.Mutex
	tasks map[string]*task
}

func newTaskService(steps int, analyzer Analyzer) *taskService {
	return &taskService{
		steps:    steps,
		analyzer: analyzer,
		tasks:    map[string]*task{},
	}
}

func (s *taskService) create(kind model.JobKind, text string, metadata map[string]any) *task {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &task{
		id:       uuid.NewString(),
		kind:     kind,
		text:     text,
		metadata: metadata,
		status:   model.TaskStatusPending,
	}
	s.tasks[t.id] = t

	return t
}

func (s *taskService) poll(kind model.JobKind, id string) (resultResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.kind != kind {
		return resultResponse{}, false
	}

	t.polls++
	if !t.status.IsTerminal() {
		if t.polls <= s.steps {
			t.status = model.TaskStatusProcessing
		} else {
			data, err := s.analyzer(t.kind, t.text, t.metadata)
			if err != nil {
				t.status = model.TaskStatusError
				t.err = err.Error()
			} else {
				t.status = model.TaskStatusCompleted
				t.data = data
			}
		}
	}

	progress := 100
	if !t.status.IsTerminal() {
		progress = t.polls * 100 / (s.steps + 1)
	}

	return resultResponse{
		Status:   string(t.status),
		Progress: progress,
		Data:     t.data,
		Error:    t.err,
	}, true
}

func (s *taskService) polls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return 0
	}
	return t.polls
}
