package lib

import (
	"context"
	"fmt"
	"io"

	"github.com/slok/legalflow/internal/app/upload"
	"github.com/slok/legalflow/internal/app/vaultlist"
	"github.com/slok/legalflow/internal/app/vaultremove"
	"github.com/slok/legalflow/internal/app/vaultshow"
	"github.com/slok/legalflow/internal/model"
)

// UploadOpts configures a document upload.
type UploadOpts struct {
	// Filename is the document file name, only the base name is sent.
	Filename string
	// Content is the file content (PDF or text).
	Content io.Reader
	// Save stores the extracted text in the vault.
	Save bool
}

// UploadResult is the text extracted by the backend from a document.
type UploadResult struct {
	Text      string
	PageCount int
	// Document is the vault document, nil when not saved.
	Document *Document
}

// Upload sends a document to the backend to extract its text.
func (c *Client) Upload(ctx context.Context, opts UploadOpts) (*UploadResult, error) {
	svc, err := upload.NewService(upload.ServiceConfig{
		Uploader: c.api,
		Vault:    c.vault,
		Logger:   c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, upload.Request{
		Filename: opts.Filename,
		Content:  opts.Content,
		Save:     opts.Save,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &UploadResult{
		Text:      res.Upload.Text,
		PageCount: res.Upload.PageCount,
		Document:  fromInternalDocumentPtr(res.Document),
	}, nil
}

// ListDocumentsOpts configures document listing filters.
//
// Pass nil to [Client.ListDocuments] to list all documents.
type ListDocumentsOpts struct {
	// Name filters by a case insensitive substring of the document name.
	Name string
	// Source filters by document source.
	Source *DocumentSource
}

// ListDocuments returns the vault documents, newest first.
func (c *Client) ListDocuments(ctx context.Context, opts *ListDocumentsOpts) ([]Document, error) {
	svc, err := vaultlist.NewService(vaultlist.ServiceConfig{
		Vault:  c.vault,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	req := vaultlist.Request{}
	if opts != nil {
		req.NameFilter = opts.Name
		if opts.Source != nil {
			s := model.DocumentSource(*opts.Source)
			req.SourceFilter = &s
		}
	}

	docs, err := svc.Run(ctx, req)
	if err != nil {
		return nil, mapError(err)
	}

	return fromInternalDocumentList(docs), nil
}

// GetDocument returns a vault document with its analyses.
//
// Returns [ErrNotFound] if the document does not exist.
func (c *Client) GetDocument(ctx context.Context, id string) (*DocumentDetails, error) {
	svc, err := vaultshow.NewService(vaultshow.ServiceConfig{
		Vault:  c.vault,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, vaultshow.Request{DocumentID: id})
	if err != nil {
		return nil, mapError(err)
	}

	return &DocumentDetails{
		Document: fromInternalDocument(res.Document),
		Analyses: fromInternalAnalysisList(res.Analyses),
	}, nil
}

// RemoveDocuments removes vault documents with their analyses. It stops on the first
// failure and returns the documents removed until then.
func (c *Client) RemoveDocuments(ctx context.Context, ids ...string) ([]Document, error) {
	svc, err := vaultremove.NewService(vaultremove.ServiceConfig{
		Vault:  c.vault,
		Logger: c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	removed, err := svc.Run(ctx, vaultremove.Request{DocumentIDs: ids})
	return fromInternalDocumentList(removed), mapError(err)
}
