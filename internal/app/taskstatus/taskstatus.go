package taskstatus

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/poller"
)

// ServiceConfig is the configuration for the task status service.
type ServiceConfig struct {
	Client          poller.TaskAPI
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	MaxPollFailures int
	// Backoff is optional, the poller default is used when missing.
	Backoff func() backoff.BackOff
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service checks the status of an already submitted task.
type Service struct {
	cfg    ServiceConfig
	logger log.Logger
}

// NewService creates a new task status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

// Request represents the task status request parameters.
type Request struct {
	Kind   model.JobKind
	TaskID string
	// Wait keeps polling the task until it reaches a terminal status.
	Wait    bool
	OnState func(model.TaskState)
}

// Run returns the task status. Without Wait it's a single poll, with Wait polling
// is resumed on the task as if it was submitted by this process.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	p, err := poller.NewPoller(poller.Config{
		Client:          s.cfg.Client,
		Kind:            req.Kind,
		PollInterval:    s.cfg.PollInterval,
		RequestTimeout:  s.cfg.RequestTimeout,
		MaxPollFailures: s.cfg.MaxPollFailures,
		Backoff:         s.cfg.Backoff,
		Logger:          s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create poller: %w", err)
	}
	defer p.Close()

	if !req.Wait {
		return p.Poll(ctx, req.TaskID)
	}

	if req.OnState != nil {
		unsubscribe := p.Subscribe(req.OnState)
		defer unsubscribe()
	}

	if err := p.Resume(ctx, req.TaskID); err != nil {
		return nil, err
	}

	state, err := p.Wait(ctx)
	if err != nil {
		return state.Task, err
	}

	return state.Task, state.Err
}
