// Package vault is the local document vault. Every mutation is published through
// a store so the views sharing the vault are kept in sync.
package vault

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/storage"
	"github.com/slok/legalflow/internal/store"
)

// EventType is the type of a vault mutation.
type EventType string

const (
	EventDocumentSaved   EventType = "document_saved"
	EventDocumentUpdated EventType = "document_updated"
	EventDocumentRemoved EventType = "document_removed"
	EventAnalysisAdded   EventType = "analysis_added"
)

// Event is a vault mutation.
type Event struct {
	// Revision increases with every mutation of the vault.
	Revision   uint64
	Type       EventType
	DocumentID string
	AnalysisID string
}

// Config is the configuration of the vault.
type Config struct {
	Repository storage.Repository
	// Store receives every vault mutation, a new one is created when missing.
	Store  *store.Store[Event]
	Now    func() time.Time
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Store == nil {
		c.Store = store.New(Event{})
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "vault.Vault"})
	return nil
}

// Vault stores documents and the analyses run over them.
type Vault struct {
	repo   storage.Repository
	store  *store.Store[Event]
	now    func() time.Time
	logger log.Logger
}

// New returns a new vault.
func New(cfg Config) (*Vault, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Vault{
		repo:   cfg.Repository,
		store:  cfg.Store,
		now:    cfg.Now,
		logger: cfg.Logger,
	}, nil
}

// Subscribe registers fn to be called with every vault mutation.
func (v *Vault) Subscribe(fn func(Event)) (unsubscribe func()) {
	return v.store.Subscribe(fn)
}

// SaveDocumentRequest is the request to store a new document.
type SaveDocumentRequest struct {
	Name      string
	Text      string
	PageCount int
	Source    model.DocumentSource
}

// SaveDocument stores a new document.
func (v *Vault) SaveDocument(ctx context.Context, req SaveDocumentRequest) (*model.Document, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &model.ValidationError{Field: "text", Reason: "document text is required"}
	}

	now := v.now().UTC()
	doc := model.Document{
		ID:        newID(now),
		Name:      req.Name,
		Text:      req.Text,
		PageCount: req.PageCount,
		Source:    req.Source,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := v.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("could not store document: %w", err)
	}

	v.publish(Event{Type: EventDocumentSaved, DocumentID: doc.ID})
	v.logger.Infof("Document %q saved in vault with ID %s", doc.Name, doc.ID)

	return &doc, nil
}

// UpdateDocumentText replaces the text of a stored document.
func (v *Vault) UpdateDocumentText(ctx context.Context, id, text string) (*model.Document, error) {
	doc, err := v.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not get document: %w", err)
	}

	doc.Text = text
	doc.UpdatedAt = v.now().UTC()
	if err := v.repo.UpdateDocument(ctx, *doc); err != nil {
		return nil, fmt.Errorf("could not update document: %w", err)
	}

	v.publish(Event{Type: EventDocumentUpdated, DocumentID: id})

	return doc, nil
}

// GetDocument returns a stored document.
func (v *Vault) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return v.repo.GetDocument(ctx, id)
}

// ListDocuments returns the stored documents, newest first.
func (v *Vault) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return v.repo.ListDocuments(ctx)
}

// RemoveDocument removes a document and its analyses.
func (v *Vault) RemoveDocument(ctx context.Context, id string) error {
	if err := v.repo.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("could not remove document: %w", err)
	}

	v.publish(Event{Type: EventDocumentRemoved, DocumentID: id})
	v.logger.Infof("Document %s removed from vault", id)

	return nil
}

// AddAnalysis stores the terminal state of a task run over a document.
func (v *Vault) AddAnalysis(ctx context.Context, documentID string, kind model.JobKind, task model.Task) (*model.Analysis, error) {
	if !task.Status.IsTerminal() {
		return nil, fmt.Errorf("task %s is not finished (%s): %w", task.ID, task.Status, model.ErrNotValid)
	}

	now := v.now().UTC()
	a := model.Analysis{
		ID:           newID(now),
		DocumentID:   documentID,
		Kind:         kind,
		RemoteTaskID: task.ID,
		Status:       task.Status,
		Result:       task.Result,
		Error:        task.Error,
		CreatedAt:    now,
	}
	if err := v.repo.CreateAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("could not store analysis: %w", err)
	}

	v.publish(Event{Type: EventAnalysisAdded, DocumentID: documentID, AnalysisID: a.ID})

	return &a, nil
}

// ListAnalyses returns the analyses of a document, oldest first.
func (v *Vault) ListAnalyses(ctx context.Context, documentID string) ([]model.Analysis, error) {
	if _, err := v.repo.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return v.repo.ListAnalyses(ctx, documentID)
}

func (v *Vault) publish(e Event) {
	v.store.Update(func(current Event) Event {
		e.Revision = current.Revision + 1
		return e
	})
}

func newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
