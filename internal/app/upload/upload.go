package upload

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/vault"
)

// Uploader extracts the text of a document file.
type Uploader interface {
	UploadDocument(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error)
}

// ServiceConfig is the configuration for the upload service.
type ServiceConfig struct {
	Uploader Uploader
	// Vault is optional, required to save the uploaded documents.
	Vault  *vault.Vault
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Uploader == nil {
		return fmt.Errorf("uploader is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service uploads documents to extract their text.
type Service struct {
	uploader Uploader
	vault    *vault.Vault
	logger   log.Logger
}

// NewService creates a new upload service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		uploader: cfg.Uploader,
		vault:    cfg.Vault,
		logger:   cfg.Logger,
	}, nil
}

// Request represents the upload request parameters.
type Request struct {
	Filename string
	Content  io.Reader
	// Save stores the extracted text as a vault document.
	Save bool
}

// Result is the outcome of an upload.
type Result struct {
	Upload   model.UploadResult
	Document *model.Document
}

// Run uploads the file and optionally stores its text in the vault.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Filename == "" || req.Content == nil {
		return nil, fmt.Errorf("filename and content are required: %w", model.ErrNotValid)
	}
	if req.Save && s.vault == nil {
		return nil, fmt.Errorf("vault is required to save documents: %w", model.ErrNotValid)
	}

	name := filepath.Base(req.Filename)
	up, err := s.uploader.UploadDocument(ctx, name, req.Content)
	if err != nil {
		return nil, fmt.Errorf("could not upload document: %w", err)
	}
	s.logger.Debugf("Extracted %d characters from %s", len(up.Text), name)

	res := &Result{Upload: *up}
	if !req.Save {
		return res, nil
	}

	doc, err := s.vault.SaveDocument(ctx, vault.SaveDocumentRequest{
		Name:      name,
		Text:      up.Text,
		PageCount: up.PageCount,
		Source:    model.DocumentSourceUpload,
	})
	if err != nil {
		return res, fmt.Errorf("could not save document: %w", err)
	}
	res.Document = doc

	return res, nil
}
