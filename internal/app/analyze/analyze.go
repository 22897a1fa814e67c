package analyze

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/poller"
	"github.com/slok/legalflow/internal/vault"
)

// ServiceConfig is the configuration for the analyze service.
type ServiceConfig struct {
	Client poller.TaskAPI
	// Vault is optional, required to analyze or save vault documents.
	Vault           *vault.Vault
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	MaxPollFailures int
	MinTextLength   int
	Logger          log.Logger
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

// Service submits a document for analysis and waits until the task finishes.
type Service struct {
	cfg    ServiceConfig
	logger log.Logger
}

// NewService creates a new analyze service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

// Request represents the analyze request parameters.
type Request struct {
	Kind model.JobKind
	// Text is the document text, ignored when DocumentID is set.
	Text string
	// Name is the name used when saving a new document in the vault.
	Name      string
	Source    model.DocumentSource
	PageCount int
	// DocumentID analyzes a document already stored in the vault.
	DocumentID string
	Metadata   map[string]any
	// Save stores the document (when it's not from the vault) and the analysis in the vault.
	Save bool
	// OnState is called on every task state change.
	OnState func(model.TaskState)
}

// Result is the outcome of an analysis.
type Result struct {
	State    model.TaskState
	Document *model.Document
	Analysis *model.Analysis
}

// Run submits the document and polls the task until it reaches a terminal status.
// Failures of the task are returned as errors together with the final state.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if (req.DocumentID != "" || req.Save) && s.cfg.Vault == nil {
		return nil, fmt.Errorf("vault is required to use vault documents: %w", model.ErrNotValid)
	}

	res := &Result{}
	text := req.Text
	if req.DocumentID != "" {
		doc, err := s.cfg.Vault.GetDocument(ctx, req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("could not get vault document: %w", err)
		}
		res.Document = doc
		text = doc.Text
	}

	p, err := poller.NewPoller(poller.Config{
		Client:          s.cfg.Client,
		Kind:            req.Kind,
		PollInterval:    s.cfg.PollInterval,
		RequestTimeout:  s.cfg.RequestTimeout,
		MaxPollFailures: s.cfg.MaxPollFailures,
		MinTextLength:   s.cfg.MinTextLength,
		Logger:          s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create poller: %w", err)
	}
	defer p.Close()

	if req.OnState != nil {
		unsubscribe := p.Subscribe(req.OnState)
		defer unsubscribe()
	}

	taskID, err := p.Submit(ctx, model.SubmitPayload{DocumentText: text, Metadata: req.Metadata})
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Task %s submitted", taskID)

	state, err := p.Wait(ctx)
	res.State = state
	if err != nil {
		return res, err
	}

	if req.Save && state.Task != nil && state.Task.Status.IsTerminal() {
		if err := s.save(ctx, req, text, state, res); err != nil {
			return res, err
		}
	}

	if state.Err != nil {
		return res, state.Err
	}

	return res, nil
}

func (s *Service) save(ctx context.Context, req Request, text string, state model.TaskState, res *Result) error {
	if res.Document == nil {
		source := req.Source
		if source == "" {
			source = model.DocumentSourceInline
		}
		name := req.Name
		if name == "" {
			name = fmt.Sprintf("%s-%s", req.Kind, state.Task.ID)
		}

		doc, err := s.cfg.Vault.SaveDocument(ctx, vault.SaveDocumentRequest{
			Name:      name,
			Text:      text,
			PageCount: req.PageCount,
			Source:    source,
		})
		if err != nil {
			return fmt.Errorf("could not save document: %w", err)
		}
		res.Document = doc
	}

	kind := req.Kind
	if kind == "" {
		kind = model.JobKindAudit
	}
	a, err := s.cfg.Vault.AddAnalysis(ctx, res.Document.ID, kind, *state.Task)
	if err != nil {
		return fmt.Errorf("could not save analysis: %w", err)
	}
	res.Analysis = a

	return nil
}
