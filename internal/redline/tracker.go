// Package redline tracks the insertions and deletions made on a document buffer so
// they can be reviewed one by one and exported with the final document.
package redline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
)

// DefaultDebounceWindow is the time a buffered deletion waits for adjacent deletions before being committed.
const DefaultDebounceWindow = 10 * time.Second

// Exporter renders a document with its change log.
type Exporter interface {
	ExportRedline(ctx context.Context, content string, changes []model.TextChange) (*model.ExportArtifact, error)
}

// ErrClosed is returned when using a closed tracker.
var ErrClosed = errors.New("tracker is closed")

// TrackerConfig is the configuration of the change tracker.
type TrackerConfig struct {
	DebounceWindow time.Duration
	DiffMode       DiffMode
	// Exporter is optional, without it exports fail.
	Exporter Exporter
	Now      func() time.Time
	Logger   log.Logger
}

func (c *TrackerConfig) defaults() error {
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.DiffMode == "" {
		c.DiffMode = DiffModeMyers
	}
	if err := c.DiffMode.Validate(); err != nil {
		return err
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "redline.Tracker"})
	return nil
}

// pendingDeletion is a deletion still accepting adjacent deletions.
type pendingDeletion struct {
	change model.TextChange
	last   time.Time
	timer  *time.Timer
}

// Tracker keeps the ordered log of edits made on a text buffer.
//
// Insertions are committed right away, deletions are buffered and adjacent ones are
// coalesced while they happen inside the debounce window. Rejecting a change doesn't
// check the buffer integrity, a buffer mutated by overlapping edits after the change
// was recorded will be corrupted.
type Tracker struct {
	cfg    TrackerConfig
	differ differ
	logger log.Logger

	mu      sync.Mutex
	buffer  string
	changes []model.TextChange
	pending *pendingDeletion
	closed  bool
}

// NewTracker returns a tracker for a buffer with the initial content.
func NewTracker(initial string, cfg TrackerConfig) (*Tracker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := validateText("initial", initial); err != nil {
		return nil, err
	}

	var d differ = newMyersDiffer()
	if cfg.DiffMode == DiffModeLengthDelta {
		d = lengthDeltaDiffer{}
	}

	return &Tracker{
		cfg:    cfg,
		differ: d,
		logger: cfg.Logger,
		buffer: initial,
	}, nil
}

// OnEdit records the edits between the old and the new content, the new content becomes the buffer.
// The cursor is the caret position after the edit, only used by the length delta diff mode.
func (t *Tracker) OnEdit(oldContent, newContent string, cursor int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if err := validateText("old content", oldContent); err != nil {
		return err
	}
	if err := validateText("new content", newContent); err != nil {
		return err
	}

	t.buffer = newContent
	for _, e := range t.differ.diff(oldContent, newContent, cursor) {
		switch e.typ {
		case model.ChangeTypeInsertion:
			t.commitPending()
			t.changes = append(t.changes, t.newChange(e))
		case model.ChangeTypeDeletion:
			t.bufferDeletion(e)
		}
	}

	return nil
}

// Accept keeps the change at index applied and removes it from the log.
func (t *Tracker) Accept(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkIndex(index); err != nil {
		return err
	}
	t.changes = append(t.changes[:index], t.changes[index+1:]...)

	return nil
}

// AcceptAll accepts all the committed changes.
func (t *Tracker) AcceptAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.changes = nil
}

// Reject reverts the change at index on the buffer, removes it from the log and returns the new buffer.
func (t *Tracker) Reject(index int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkIndex(index); err != nil {
		return "", err
	}

	ch := t.changes[index]
	buf := []rune(t.buffer)
	pos := clamp(ch.Position, 0, len(buf))
	content := []rune(ch.Content)

	switch ch.Type {
	case model.ChangeTypeInsertion:
		end := clamp(pos+len(content), pos, len(buf))
		buf = append(buf[:pos:pos], buf[end:]...)
	case model.ChangeTypeDeletion:
		reverted := make([]rune, 0, len(buf)+len(content))
		reverted = append(reverted, buf[:pos]...)
		reverted = append(reverted, content...)
		buf = append(reverted, buf[pos:]...)
	}

	t.buffer = string(buf)
	t.changes = append(t.changes[:index], t.changes[index+1:]...)
	t.logger.Debugf("Rejected %s at %d", ch.Type, ch.Position)

	return t.buffer, nil
}

// Flush commits the pending buffered deletion, if any.
func (t *Tracker) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commitPending()
}

// Changes returns the committed changes in order.
func (t *Tracker) Changes() []model.TextChange {
	t.mu.Lock()
	defer t.mu.Unlock()

	changes := make([]model.TextChange, len(t.changes))
	copy(changes, t.changes)
	return changes
}

// Pending returns the buffered deletion not yet committed, nil if there is none.
func (t *Tracker) Pending() *model.TextChange {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending == nil {
		return nil
	}
	ch := t.pending.change
	return &ch
}

// Buffer returns the current buffer content.
func (t *Tracker) Buffer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buffer
}

// Export commits the pending deletion and sends the buffer with its change log to the exporter.
func (t *Tracker) Export(ctx context.Context) (*model.ExportArtifact, error) {
	t.mu.Lock()
	t.commitPending()
	buffer := t.buffer
	changes := make([]model.TextChange, len(t.changes))
	copy(changes, t.changes)
	t.mu.Unlock()

	if t.cfg.Exporter == nil {
		return nil, &model.ExportError{Err: fmt.Errorf("exporter is required: %w", model.ErrNotValid)}
	}

	art, err := t.cfg.Exporter.ExportRedline(ctx, buffer, changes)
	if err != nil {
		var eerr *model.ExportError
		if !errors.As(err, &eerr) {
			err = &model.ExportError{Err: err}
		}
		t.logger.Errorf("Could not export document: %s", err)
		return nil, err
	}

	t.logger.Infof("Exported document with %d changes", len(changes))
	return art, nil
}

// Close commits the pending deletion and stops the debounce timer, edits are rejected after closing.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.commitPending()
	t.closed = true
	return nil
}

// validateText rejects text that is not UTF-8, positions are rune offsets and
// rejecting a change re-encodes the buffer.
func validateText(field, text string) error {
	if !utf8.ValidString(text) {
		return &model.ValidationError{Field: field, Reason: "text is not valid UTF-8"}
	}
	return nil
}

func (t *Tracker) checkIndex(index int) error {
	if index < 0 || index >= len(t.changes) {
		return fmt.Errorf("change index %d out of range [0, %d): %w", index, len(t.changes), model.ErrNotValid)
	}
	return nil
}

func (t *Tracker) newChange(e edit) model.TextChange {
	return model.TextChange{
		ID:        ulid.Make().String(),
		Type:      e.typ,
		Content:   e.content,
		Position:  e.position,
		Timestamp: t.cfg.Now().UTC(),
	}
}

// bufferDeletion merges the deletion into the pending one when it's adjacent and inside
// the debounce window, otherwise it commits the pending one and starts a new one.
// Must be called with the lock held.
func (t *Tracker) bufferDeletion(e edit) {
	now := t.cfg.Now()

	if p := t.pending; p != nil && now.Sub(p.last) <= t.cfg.DebounceWindow {
		n := len([]rune(e.content))
		switch {
		// Backspace, the deleted span ends where the pending one starts.
		case e.position+n == p.change.Position:
			p.change.Content = e.content + p.change.Content
			p.change.Position = e.position
			t.touchPending(now)
			return
		// Forward delete, the deleted span starts where the pending one started.
		case e.position == p.change.Position:
			p.change.Content += e.content
			t.touchPending(now)
			return
		}
	}

	t.commitPending()
	p := &pendingDeletion{change: t.newChange(e), last: now}
	p.timer = time.AfterFunc(t.cfg.DebounceWindow, func() { t.expire(p) })
	t.pending = p
}

func (t *Tracker) touchPending(now time.Time) {
	t.pending.last = now
	t.pending.timer.Reset(t.cfg.DebounceWindow)
}

// expire commits p if it's still the pending deletion and its window ended on the
// tracker clock, otherwise the timer is armed again for the rest of the window.
func (t *Tracker) expire(p *pendingDeletion) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != p {
		return
	}
	if left := t.cfg.DebounceWindow - t.cfg.Now().Sub(p.last); left > 0 {
		p.timer.Reset(left)
		return
	}
	t.commitPending()
}

// commitPending must be called with the lock held.
func (t *Tracker) commitPending() {
	if t.pending == nil {
		return
	}

	t.pending.timer.Stop()
	t.changes = append(t.changes, t.pending.change)
	t.logger.Debugf("Committed deletion of %d characters at %d", len([]rune(t.pending.change.Content)), t.pending.change.Position)
	t.pending = nil
}
