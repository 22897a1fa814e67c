package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/store"
)

// TaskAPI is the backend used to submit and check analysis tasks.
type TaskAPI interface {
	SubmitTask(ctx context.Context, kind model.JobKind, payload model.SubmitPayload) (*model.Task, error)
	GetTaskResult(ctx context.Context, kind model.JobKind, taskID string) (*model.Task, error)
}

const (
	DefaultPollInterval    = 2 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxPollFailures = 3
)

// DefaultBackoff is the backoff used between failed polls.
func DefaultBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Config is the configuration of the poller.
type Config struct {
	Client TaskAPI
	Kind   model.JobKind
	// PollInterval is the wait between two successful polls.
	PollInterval time.Duration
	// RequestTimeout bounds every single backend request.
	RequestTimeout time.Duration
	// MaxPollFailures is the number of consecutive polling failures before surfacing the error.
	MaxPollFailures int
	// Backoff returns the backoff policy used after a failed poll, it's called once per polling run.
	Backoff       func() backoff.BackOff
	MinTextLength int
	// Store is where the task state is published, a new one is created if missing.
	Store  *store.Store[model.TaskState]
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}
	if c.Kind == "" {
		c.Kind = model.JobKindAudit
	}
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.MaxPollFailures <= 0 {
		c.MaxPollFailures = DefaultMaxPollFailures
	}
	if c.Backoff == nil {
		c.Backoff = DefaultBackoff
	}
	if c.MinTextLength <= 0 {
		c.MinTextLength = model.DefaultMinTextLength
	}
	if c.Store == nil {
		c.Store = store.New(model.TaskState{Phase: model.PollPhaseIdle})
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "poller.Poller", "kind": c.Kind})
	return nil
}

var (
	errStopped = errors.New("polling stopped")
	// ErrClosed is returned when using a closed poller.
	ErrClosed = errors.New("poller is closed")
)

// Poller submits a task to the backend and tracks it until it reaches a terminal status.
//
// There is at most one polling goroutine at a time, polls are serialized: the next
// one is scheduled only after the previous one resolved. The state is published on
// the store, subscribers are called from the polling goroutine and must not call
// other Poller methods than State.
type Poller struct {
	cfg    Config
	state  *store.Store[model.TaskState]
	logger log.Logger

	// opMu serializes the consumer operations (submit, retry, clear, close).
	opMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelCauseFunc
	done   chan struct{}
	closed bool
	// cancelSubmit aborts the in-flight submit request, nil when there is none.
	cancelSubmit context.CancelCauseFunc
}

// NewPoller returns a new poller.
func NewPoller(cfg Config) (*Poller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Poller{
		cfg:    cfg,
		state:  cfg.Store,
		logger: cfg.Logger,
	}, nil
}

// Submit validates and submits the payload, on success it starts polling the task in the background.
// Any previous polling is stopped first.
func (p *Poller) Submit(ctx context.Context, payload model.SubmitPayload) (string, error) {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	return p.submit(ctx, payload)
}

func (p *Poller) submit(ctx context.Context, payload model.SubmitPayload) (string, error) {
	if p.isClosed() {
		return "", ErrClosed
	}
	p.stop()

	retained := payload
	if err := payload.Validate(p.cfg.MinTextLength); err != nil {
		p.state.Set(model.TaskState{Phase: model.PollPhaseError, Payload: &retained, Err: err})
		return "", err
	}

	stopCtx, cancelStop := context.WithCancelCause(ctx)
	p.mu.Lock()
	p.cancelSubmit = cancelStop
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.cancelSubmit = nil
		p.mu.Unlock()
		cancelStop(nil)
	}()

	p.state.Set(model.TaskState{Phase: model.PollPhaseSubmitting, Payload: &retained})

	reqCtx, cancel := context.WithTimeout(stopCtx, p.cfg.RequestTimeout)
	defer cancel()
	task, err := p.cfg.Client.SubmitTask(reqCtx, p.cfg.Kind, payload)
	if err != nil && errors.Is(context.Cause(stopCtx), errStopped) {
		p.logger.Debugf("Task submission stopped")
		p.state.Set(model.TaskState{Phase: model.PollPhaseIdle})
		return "", fmt.Errorf("task submission stopped: %w", err)
	}
	if err != nil {
		err = p.timeoutError(ctx, reqCtx, "submit task", err)
		p.logger.Warningf("Could not submit task: %s", err)
		p.state.Set(model.TaskState{Phase: model.PollPhaseError, Payload: &retained, Err: err})
		return "", err
	}

	p.logger.Infof("Task %s submitted", task.ID)
	p.state.Set(model.TaskState{
		Phase:        model.PollPhasePolling,
		Task:         task,
		ActiveTaskID: task.ID,
		Payload:      &retained,
	})
	p.start(ctx, task.ID)

	return task.ID, nil
}

// Poll makes a single status request of a task, bounded by the request timeout.
// It doesn't change the poller state.
func (p *Poller) Poll(ctx context.Context, taskID string) (*model.Task, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.RequestTimeout)
	defer cancel()

	task, err := p.cfg.Client.GetTaskResult(reqCtx, p.cfg.Kind, taskID)
	if err != nil {
		return nil, p.timeoutError(ctx, reqCtx, "poll task", err)
	}

	return task, nil
}

// Resume starts polling an already submitted task, any previous polling is stopped first.
func (p *Poller) Resume(ctx context.Context, taskID string) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if taskID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}
	if p.isClosed() {
		return ErrClosed
	}
	p.stop()

	p.state.Set(model.TaskState{Phase: model.PollPhasePolling, ActiveTaskID: taskID})
	p.start(ctx, taskID)
	return nil
}

// Retry recovers from an error state: polling is resumed on the same task when there is one,
// otherwise the retained payload is submitted again.
func (p *Poller) Retry(ctx context.Context) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.isClosed() {
		return ErrClosed
	}

	st := p.state.Get()
	if st.Phase != model.PollPhaseError {
		return fmt.Errorf("only failed tasks can be retried, current phase is %s: %w", st.Phase, model.ErrNotValid)
	}

	if st.CanResume() {
		p.stop()
		p.logger.Infof("Resuming polling of task %s", st.ActiveTaskID)
		p.state.Update(func(s model.TaskState) model.TaskState {
			s.Phase = model.PollPhasePolling
			s.Err = nil
			s.ConsecutiveFailures = 0
			return s
		})
		p.start(ctx, st.ActiveTaskID)
		return nil
	}

	if st.Payload == nil {
		return fmt.Errorf("nothing to retry: %w", model.ErrNotValid)
	}

	_, err := p.submit(ctx, *st.Payload)
	return err
}

// Clear stops any submission or polling and resets the state to idle.
func (p *Poller) Clear() {
	p.abortSubmit()
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.stop()
	p.state.Set(model.TaskState{Phase: model.PollPhaseIdle})
}

// Close stops any submission or polling, the poller can't be used after closing it.
func (p *Poller) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.abortSubmit()

	p.opMu.Lock()
	defer p.opMu.Unlock()
	p.stop()

	return nil
}

// State returns the current task state.
func (p *Poller) State() model.TaskState { return p.state.Get() }

// Subscribe registers fn to be called on every state change.
func (p *Poller) Subscribe(fn func(model.TaskState)) (unsubscribe func()) {
	return p.state.Subscribe(fn)
}

// Wait blocks until the current polling ends and returns the resulting state.
// The error is only set when ctx ends before, failures of the task are on the state.
func (p *Poller) Wait(ctx context.Context) (model.TaskState, error) {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()

	if done == nil {
		return p.State(), nil
	}

	select {
	case <-done:
		return p.State(), nil
	case <-ctx.Done():
		return p.State(), ctx.Err()
	}
}

func (p *Poller) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// start runs the polling goroutine, the caller must have stopped the previous one.
func (p *Poller) start(ctx context.Context, taskID string) {
	ctx, cancel := context.WithCancelCause(ctx)
	done := make(chan struct{})

	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel(nil)
		p.run(ctx, taskID)
	}()
}

// abortSubmit cancels the in-flight submit request, it doesn't need the operation lock.
func (p *Poller) abortSubmit() {
	p.mu.Lock()
	cancel := p.cancelSubmit
	p.mu.Unlock()

	if cancel != nil {
		cancel(errStopped)
	}
}

// stop cancels the polling goroutine and its in-flight request, and waits for it to end.
func (p *Poller) stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel(errStopped)
	<-done
}

func (p *Poller) run(ctx context.Context, taskID string) {
	logger := p.logger.WithValues(log.Kv{"task-id": taskID})
	bo := p.cfg.Backoff()
	bo.Reset()

	failures := 0
	wait := p.cfg.PollInterval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.interrupted(ctx, logger)
			return
		case <-timer.C:
		}

		task, err := p.Poll(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				p.interrupted(ctx, logger)
				return
			}

			failures++
			next := bo.NextBackOff()
			if !model.IsRetryable(err) || failures >= p.cfg.MaxPollFailures || next == backoff.Stop {
				logger.Errorf("Polling failed %d consecutive times: %s", failures, err)
				p.state.Update(func(s model.TaskState) model.TaskState {
					s.Phase = model.PollPhaseError
					s.ActiveTaskID = taskID
					s.Err = err
					s.ConsecutiveFailures = failures
					return s
				})
				return
			}

			logger.Warningf("Poll failed (%d/%d), retrying in %s: %s", failures, p.cfg.MaxPollFailures, next, err)
			p.state.Update(func(s model.TaskState) model.TaskState {
				s.ConsecutiveFailures = failures
				return s
			})
			timer.Reset(next)
			continue
		}

		failures = 0
		bo.Reset()

		switch task.Status {
		case model.TaskStatusCompleted:
			logger.Infof("Task completed")
			p.state.Update(func(s model.TaskState) model.TaskState {
				s.Phase = model.PollPhaseCompleted
				s.Task = task
				s.ActiveTaskID = ""
				s.Err = nil
				s.ConsecutiveFailures = 0
				return s
			})
			return
		case model.TaskStatusError:
			logger.Warningf("Task failed: %s", task.Error)
			p.state.Update(func(s model.TaskState) model.TaskState {
				s.Phase = model.PollPhaseError
				s.Task = task
				s.ActiveTaskID = ""
				s.Err = &model.ServerTaskError{TaskID: taskID, Message: task.Error}
				s.ConsecutiveFailures = 0
				return s
			})
			return
		}

		logger.Debugf("Task %s (%d%%)", task.Status, task.Progress)
		p.state.Update(func(s model.TaskState) model.TaskState {
			s.Phase = model.PollPhasePolling
			s.Task = task
			s.ConsecutiveFailures = 0
			return s
		})
		timer.Reset(p.cfg.PollInterval)
	}
}

// interrupted handles the end of a polling run by context. Stops requested by the
// poller itself leave the state to the caller, external cancellations are surfaced
// keeping the task so it can be resumed.
func (p *Poller) interrupted(ctx context.Context, logger log.Logger) {
	if errors.Is(context.Cause(ctx), errStopped) {
		logger.Debugf("Polling stopped")
		return
	}

	err := ctx.Err()
	logger.Warningf("Polling interrupted: %s", err)
	p.state.Update(func(s model.TaskState) model.TaskState {
		s.Phase = model.PollPhaseError
		s.Err = err
		return s
	})
}

// timeoutError maps a request that hit its own timeout into a timeout error, cancellations
// from the parent context are returned as they are.
func (p *Poller) timeoutError(parent, reqCtx context.Context, op string, err error) error {
	if parent.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return &model.TimeoutError{Op: op, Timeout: p.cfg.RequestTimeout}
	}
	return err
}
