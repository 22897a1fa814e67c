package redline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/redline"
)

// ServiceConfig is the configuration for the redline service.
type ServiceConfig struct {
	// Exporter is optional, required to export.
	Exporter       redline.Exporter
	DebounceWindow time.Duration
	DiffMode       redline.DiffMode
	Logger         log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.DiffMode == "" {
		c.DiffMode = redline.DiffModeMyers
	}
	if err := c.DiffMode.Validate(); err != nil {
		return err
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service computes the changes between document revisions and applies the review decisions.
type Service struct {
	cfg    ServiceConfig
	logger log.Logger
}

// NewService creates a new redline service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		cfg:    cfg,
		logger: cfg.Logger,
	}, nil
}

// Request represents the redline request parameters.
type Request struct {
	Original string
	// Revisions are the successive states of the document, each one is an edit of the previous.
	Revisions []string
	// Reject are the indexes of the changes to revert.
	Reject []int
	// AcceptAll accepts the changes that are not rejected.
	AcceptAll bool
	Export    bool
}

// Result is the outcome of a redline review.
type Result struct {
	// Changes are the changes left in the log after the review.
	Changes  []model.TextChange
	Rejected []model.TextChange
	Buffer   string
	Artifact *model.ExportArtifact
}

// Run records the edits of every revision and applies the review.
// Rejections are applied from the last change to the first so every change is
// reverted on the buffer state it was recorded against.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Revisions) == 0 {
		return nil, fmt.Errorf("at least one revision is required: %w", model.ErrNotValid)
	}
	if req.Export && s.cfg.Exporter == nil {
		return nil, fmt.Errorf("exporter is required to export: %w", model.ErrNotValid)
	}

	tracker, err := redline.NewTracker(req.Original, redline.TrackerConfig{
		DebounceWindow: s.cfg.DebounceWindow,
		DiffMode:       s.cfg.DiffMode,
		Exporter:       s.cfg.Exporter,
		Logger:         s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create tracker: %w", err)
	}
	defer tracker.Close()

	prev := req.Original
	for _, rev := range req.Revisions {
		if err := tracker.OnEdit(prev, rev, cursorAfterEdit(prev, rev)); err != nil {
			return nil, fmt.Errorf("could not track edit: %w", err)
		}
		prev = rev
	}
	tracker.Flush()

	changes := tracker.Changes()
	reject, err := rejectOrder(req.Reject, len(changes))
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, i := range reject {
		if _, err := tracker.Reject(i); err != nil {
			return nil, fmt.Errorf("could not reject change %d: %w", i, err)
		}
	}
	for i := len(reject) - 1; i >= 0; i-- {
		res.Rejected = append(res.Rejected, changes[reject[i]])
	}

	if req.AcceptAll {
		tracker.AcceptAll()
	}

	res.Changes = tracker.Changes()
	res.Buffer = tracker.Buffer()

	if req.Export {
		art, err := tracker.Export(ctx)
		if err != nil {
			return res, err
		}
		res.Artifact = art
	}

	s.logger.Debugf("Redline reviewed: %d changes, %d rejected", len(res.Changes), len(res.Rejected))

	return res, nil
}

// rejectOrder validates the indexes and returns them deduplicated from the last to the first.
func rejectOrder(indexes []int, total int) ([]int, error) {
	seen := map[int]bool{}
	order := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= total {
			return nil, fmt.Errorf("change index %d out of range [0, %d): %w", i, total, model.ErrNotValid)
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		order = append(order, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(order)))

	return order, nil
}

// cursorAfterEdit returns the caret position after a single localized edit, in runes.
func cursorAfterEdit(oldContent, newContent string) int {
	oldRunes, newRunes := []rune(oldContent), []rune(newContent)

	prefix := 0
	for prefix < len(oldRunes) && prefix < len(newRunes) && oldRunes[prefix] == newRunes[prefix] {
		prefix++
	}

	if delta := len(newRunes) - len(oldRunes); delta > 0 {
		return prefix + delta
	}
	return prefix
}
