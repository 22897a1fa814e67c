package lib

import (
	"context"
	"fmt"

	"github.com/slok/legalflow/internal/app/analyze"
	"github.com/slok/legalflow/internal/app/taskstatus"
	"github.com/slok/legalflow/internal/model"
)

// AnalyzeOpts configures a document analysis.
//
// One of Text or DocumentID is required.
type AnalyzeOpts struct {
	// Kind is the analysis job kind. Default: [JobKindAudit].
	Kind JobKind
	// Text is the document text, ignored when DocumentID is set.
	Text string
	// DocumentID analyzes a document stored in the vault.
	DocumentID string
	// Name is the vault document name when Save creates a new document.
	Name string
	// Metadata is sent to the backend with the document text.
	Metadata map[string]any
	// Save stores the document (when it's not from the vault) and the analysis in the vault.
	Save bool
	// OnState is called on every state change while the task is submitted and polled.
	// It's called from the polling goroutine and must not block.
	OnState func(TaskState)
}

// AnalyzeResult is the outcome of an analysis.
type AnalyzeResult struct {
	// State is the final state of the submission.
	State TaskState
	// Document is the vault document, nil when the document was not saved.
	Document *Document
	// Analysis is the stored analysis, nil when it was not saved.
	Analysis *Analysis
}

// Analyze submits a document and blocks until the task reaches a terminal status.
//
// When the task fails after being submitted, the result is returned together with
// the error. A [ServerTaskError] means the backend failed the task, other errors
// keep the task ID in State.ActiveTaskID so it can be awaited with [Client.WaitTask].
func (c *Client) Analyze(ctx context.Context, opts AnalyzeOpts) (*AnalyzeResult, error) {
	kind := opts.Kind
	if kind == "" {
		kind = JobKindAudit
	}

	svc, err := analyze.NewService(analyze.ServiceConfig{
		Client:          c.api,
		Vault:           c.vault,
		PollInterval:    c.cfg.PollInterval,
		RequestTimeout:  c.cfg.RequestTimeout,
		MaxPollFailures: c.cfg.MaxPollFailures,
		MinTextLength:   c.cfg.MinTextLength,
		Logger:          c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, analyze.Request{
		Kind:       model.JobKind(kind),
		Text:       opts.Text,
		Name:       opts.Name,
		Source:     model.DocumentSourceInline,
		DocumentID: opts.DocumentID,
		Metadata:   opts.Metadata,
		Save:       opts.Save,
		OnState:    onStateFunc(opts.OnState),
	})
	if res == nil {
		return nil, mapError(err)
	}

	result := &AnalyzeResult{
		State:    fromInternalTaskState(res.State),
		Document: fromInternalDocumentPtr(res.Document),
	}
	if res.Analysis != nil {
		a := fromInternalAnalysis(*res.Analysis)
		result.Analysis = &a
	}

	return result, mapError(err)
}

// GetTask returns the current backend state of a task with a single request.
func (c *Client) GetTask(ctx context.Context, kind JobKind, taskID string) (*Task, error) {
	return c.task(ctx, kind, taskID, false, nil)
}

// WaitTask polls a submitted task until it reaches a terminal status. A task that
// ends with an error status returns the task together with a [ServerTaskError].
func (c *Client) WaitTask(ctx context.Context, kind JobKind, taskID string, onState func(TaskState)) (*Task, error) {
	return c.task(ctx, kind, taskID, true, onState)
}

func (c *Client) task(ctx context.Context, kind JobKind, taskID string, wait bool, onState func(TaskState)) (*Task, error) {
	svc, err := taskstatus.NewService(taskstatus.ServiceConfig{
		Client:          c.api,
		PollInterval:    c.cfg.PollInterval,
		RequestTimeout:  c.cfg.RequestTimeout,
		MaxPollFailures: c.cfg.MaxPollFailures,
		Logger:          c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Run(ctx, taskstatus.Request{
		Kind:    model.JobKind(kind),
		TaskID:  taskID,
		Wait:    wait,
		OnState: onStateFunc(onState),
	})

	return fromInternalTaskPtr(task), mapError(err)
}
