package vaultshow

import (
	"context"
	"fmt"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/vault"
)

// ServiceConfig is the configuration for the vault show service.
type ServiceConfig struct {
	Vault  *vault.Vault
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Vault == nil {
		return fmt.Errorf("vault is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service shows a vault document with its analyses.
type Service struct {
	vault  *vault.Vault
	logger log.Logger
}

// NewService creates a new vault show service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		vault:  cfg.Vault,
		logger: cfg.Logger,
	}, nil
}

// Request represents the vault show request parameters.
type Request struct {
	DocumentID string
}

// Result is a document with its analyses.
type Result struct {
	Document model.Document
	Analyses []model.Analysis
}

// Run returns the document and its analyses, oldest first.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.DocumentID == "" {
		return nil, fmt.Errorf("document id is required: %w", model.ErrNotValid)
	}

	doc, err := s.vault.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("could not get document: %w", err)
	}

	analyses, err := s.vault.ListAnalyses(ctx, req.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("could not list analyses: %w", err)
	}

	return &Result{Document: *doc, Analyses: analyses}, nil
}
