package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	documents map[string]model.Document
	analyses  map[string][]model.Analysis
	mu        sync.RWMutex
	logger    log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		documents: make(map[string]model.Document),
		analyses:  make(map[string][]model.Analysis),
		logger:    cfg.Logger,
	}, nil
}

// CreateDocument stores a new document.
func (r *Repository) CreateDocument(ctx context.Context, d model.Document) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[d.ID]; ok {
		return fmt.Errorf("document %s: %w", d.ID, model.ErrAlreadyExists)
	}

	r.documents[d.ID] = d
	r.logger.Debugf("Created document in vault: %s", d.ID)

	return nil
}

// GetDocument retrieves a document by ID.
func (r *Repository) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, model.ErrNotFound)
	}

	return &doc, nil
}

// ListDocuments returns all the documents, newest first.
func (r *Repository) ListDocuments(ctx context.Context) ([]model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	docs := make([]model.Document, 0, len(r.documents))
	for _, doc := range r.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID > docs[j].ID
	})

	return docs, nil
}

// UpdateDocument updates an existing document, the creation time is kept.
func (r *Repository) UpdateDocument(ctx context.Context, d model.Document) error {
	if err := d.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.documents[d.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", d.ID, model.ErrNotFound)
	}

	d.CreatedAt = stored.CreatedAt
	r.documents[d.ID] = d
	r.logger.Debugf("Updated document in vault: %s", d.ID)

	return nil
}

// DeleteDocument deletes a document and its analyses.
func (r *Repository) DeleteDocument(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, model.ErrNotFound)
	}

	delete(r.documents, id)
	delete(r.analyses, id)
	r.logger.Debugf("Deleted document from vault: %s", id)

	return nil
}

// CreateAnalysis stores the result of an analysis over a vault document.
func (r *Repository) CreateAnalysis(ctx context.Context, a model.Analysis) error {
	if a.ID == "" || a.DocumentID == "" {
		return fmt.Errorf("analysis id and document id are required: %w", model.ErrNotValid)
	}
	if err := a.Kind.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[a.DocumentID]; !ok {
		return fmt.Errorf("document %s: %w", a.DocumentID, model.ErrNotFound)
	}
	for _, analyses := range r.analyses {
		for _, existing := range analyses {
			if existing.ID == a.ID {
				return fmt.Errorf("analysis %s: %w", a.ID, model.ErrAlreadyExists)
			}
		}
	}

	a.Result = append([]byte(nil), a.Result...)
	if len(a.Result) == 0 {
		a.Result = nil
	}
	r.analyses[a.DocumentID] = append(r.analyses[a.DocumentID], a)
	r.logger.Debugf("Created analysis %s for document %s", a.ID, a.DocumentID)

	return nil
}

// ListAnalyses returns the analyses of a document, oldest first.
func (r *Repository) ListAnalyses(ctx context.Context, documentID string) ([]model.Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	analyses := make([]model.Analysis, len(r.analyses[documentID]))
	copy(analyses, r.analyses[documentID])
	sort.SliceStable(analyses, func(i, j int) bool {
		if !analyses[i].CreatedAt.Equal(analyses[j].CreatedAt) {
			return analyses[i].CreatedAt.Before(analyses[j].CreatedAt)
		}
		return analyses[i].ID < analyses[j].ID
	})

	return analyses, nil
}
