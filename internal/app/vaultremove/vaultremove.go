package vaultremove

import (
	"context"
	"fmt"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/vault"
)

// ServiceConfig is the configuration for the vault remove service.
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

// Service removes documents from the vault.
type Service struct {
	vault  *vault.Vault
	logger log.Logger
}

// NewService creates a new vault remove service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		vault:  cfg.Vault,
		logger: cfg.Logger,
	}, nil
}

// Request represents the vault remove request parameters.
type Request struct {
	DocumentIDs []string
}

// Run removes the documents and their analyses, it stops on the first failure
// and returns the documents removed until then.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Document, error) {
	if len(req.DocumentIDs) == 0 {
		return nil, fmt.Errorf("at least one document id is required: %w", model.ErrNotValid)
	}

	removed := make([]model.Document, 0, len(req.DocumentIDs))
	for _, id := range req.DocumentIDs {
		doc, err := s.vault.GetDocument(ctx, id)
		if err != nil {
			return removed, fmt.Errorf("could not get document %s: %w", id, err)
		}

		if err := s.vault.RemoveDocument(ctx, id); err != nil {
			return removed, err
		}
		removed = append(removed, *doc)
	}

	return removed, nil
}
