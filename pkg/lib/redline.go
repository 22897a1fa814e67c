package lib

import (
	"context"
	"fmt"

	appredline "github.com/slok/legalflow/internal/app/redline"
	"github.com/slok/legalflow/internal/redline"
)

// ReviewOpts configures a redline review of document revisions.
type ReviewOpts struct {
	// Original is the document before the revisions.
	Original string
	// Revisions are the successive states of the document (at least one).
	Revisions []string
	// Reject are the indexes of the changes to revert.
	Reject []int
	// AcceptAll accepts the changes that are not rejected.
	AcceptAll bool
	// Export renders the reviewed document with the backend.
	Export   bool
	DiffMode DiffMode
}

// ReviewResult is the outcome of a redline review.
type ReviewResult struct {
	// Changes are the changes left in the log.
	Changes  []TextChange
	Rejected []TextChange
	// Content is the reviewed document.
	Content string
	// Export is the rendered document, nil when not exported.
	Export *ExportArtifact
}

// Review records the changes between the revisions of a document and applies the
// review decisions.
func (c *Client) Review(ctx context.Context, opts ReviewOpts) (*ReviewResult, error) {
	svc, err := appredline.NewService(appredline.ServiceConfig{
		Exporter:       c.api,
		DebounceWindow: c.cfg.DebounceWindow,
		DiffMode:       redline.DiffMode(opts.DiffMode),
		Logger:         c.logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create service: %w", err))
	}

	res, err := svc.Run(ctx, appredline.Request{
		Original:  opts.Original,
		Revisions: opts.Revisions,
		Reject:    opts.Reject,
		AcceptAll: opts.AcceptAll,
		Export:    opts.Export,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &ReviewResult{
		Changes:  fromInternalChangeList(res.Changes),
		Rejected: fromInternalChangeList(res.Rejected),
		Content:  res.Buffer,
		Export:   fromInternalExportArtifact(res.Artifact),
	}, nil
}

// TrackerOpts configures a redline tracker.
//
// Pass nil to [Client.NewTracker] for defaults.
type TrackerOpts struct {
	DiffMode DiffMode
}

// Tracker records the changes of a document buffer while it's edited.
type Tracker struct {
	tracker *redline.Tracker
}

// NewTracker returns a tracker for a buffer with the initial content. Exports use the client backend.
func (c *Client) NewTracker(initial string, opts *TrackerOpts) (*Tracker, error) {
	cfg := redline.TrackerConfig{
		DebounceWindow: c.cfg.DebounceWindow,
		Exporter:       c.api,
		Logger:         c.logger,
	}
	if opts != nil {
		cfg.DiffMode = redline.DiffMode(opts.DiffMode)
	}

	t, err := redline.NewTracker(initial, cfg)
	if err != nil {
		return nil, mapError(err)
	}

	return &Tracker{tracker: t}, nil
}

// OnEdit records the edit from oldContent to newContent. Cursor is the caret
// position after the edit, only used by [DiffModeLengthDelta].
//
// Consecutive deletions are grouped for the debounce window, call [Tracker.Flush]
// to commit them right away.
func (t *Tracker) OnEdit(oldContent, newContent string, cursor int) error {
	return mapError(t.tracker.OnEdit(oldContent, newContent, cursor))
}

// Accept keeps the change applied and removes it from the log.
func (t *Tracker) Accept(index int) error { return mapError(t.tracker.Accept(index)) }

// AcceptAll accepts all the changes.
func (t *Tracker) AcceptAll() { t.tracker.AcceptAll() }

// Reject reverts the change on the buffer, removes it from the log and returns the new buffer.
func (t *Tracker) Reject(index int) (string, error) {
	buf, err := t.tracker.Reject(index)
	return buf, mapError(err)
}

// Flush commits the grouped deletion, if any.
func (t *Tracker) Flush() { t.tracker.Flush() }

// Changes returns the change log in order.
func (t *Tracker) Changes() []TextChange { return fromInternalChangeList(t.tracker.Changes()) }

// Buffer returns the current document content.
func (t *Tracker) Buffer() string { return t.tracker.Buffer() }

// Export renders the current buffer with the change log.
func (t *Tracker) Export(ctx context.Context) (*ExportArtifact, error) {
	art, err := t.tracker.Export(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return fromInternalExportArtifact(art), nil
}

// Close stops the tracker, a grouped deletion is committed first.
func (t *Tracker) Close() error { return t.tracker.Close() }
