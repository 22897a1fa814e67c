package vaultlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/vault"
)

// ServiceConfig is the configuration for the vault list service.
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

// Service lists the vault documents.
type Service struct {
	vault  *vault.Vault
	logger log.Logger
}

// NewService creates a new vault list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		vault:  cfg.Vault,
		logger: cfg.Logger,
	}, nil
}

// Request represents the vault list request parameters.
type Request struct {
	// NameFilter is an optional case insensitive substring of the document name.
	NameFilter string
	// SourceFilter is an optional filter to only show documents from this source.
	SourceFilter *model.DocumentSource
}

// Run lists the vault documents, newest first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Document, error) {
	docs, err := s.vault.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list documents: %w", err)
	}

	if req.NameFilter == "" && req.SourceFilter == nil {
		return docs, nil
	}

	name := strings.ToLower(req.NameFilter)
	filtered := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if req.SourceFilter != nil && d.Source != *req.SourceFilter {
			continue
		}
		if name != "" && !strings.Contains(strings.ToLower(d.Name), name) {
			continue
		}
		filtered = append(filtered, d)
	}

	s.logger.Debugf("found %d documents", len(filtered))
	return filtered, nil
}
