package storage

import (
	"context"

	"github.com/slok/legalflow/internal/model"
)

// Repository is the interface for the local document vault persistence.
type Repository interface {
	CreateDocument(ctx context.Context, d model.Document) error
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	ListDocuments(ctx context.Context) ([]model.Document, error)
	UpdateDocument(ctx context.Context, d model.Document) error
	// DeleteDocument deletes a document and its analyses.
	DeleteDocument(ctx context.Context, id string) error

	CreateAnalysis(ctx context.Context, a model.Analysis) error
	ListAnalyses(ctx context.Context, documentID string) ([]model.Analysis, error)
}
