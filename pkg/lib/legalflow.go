package lib

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/slok/legalflow/internal/api"
	"github.com/slok/legalflow/internal/conventions"
	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/storage/sqlite"
	"github.com/slok/legalflow/internal/vault"
)

// Config configures the SDK client.
//
// All fields are optional and have sensible defaults. An empty Config{} talks to
// a backend on http://127.0.0.1:5000 and uses ~/.legalflow/vault.db as the vault.
type Config struct {
	// BaseURL is the analysis backend base URL.
	// Default: http://127.0.0.1:5000.
	BaseURL string

	// SessionCookies are sent to the backend on every request.
	SessionCookies []*http.Cookie

	// HTTPClient is the client used for backend requests. It needs a cookie jar
	// when SessionCookies are set.
	// Default: a client with a cookie jar.
	HTTPClient *http.Client

	// RateLimit is the maximum backend requests per second.
	RateLimit float64

	// DataDir is the base directory for legalflow data.
	// Default: ~/.legalflow.
	DataDir string

	// DBPath is the SQLite vault path.
	// Default: <DataDir>/vault.db.
	DBPath string

	// PollInterval is the interval between task result polls. Default: 2s.
	PollInterval time.Duration
	// RequestTimeout bounds every backend request. Default: 30s.
	RequestTimeout time.Duration
	// MaxPollFailures is the number of consecutive failed polls before giving up. Default: 3.
	MaxPollFailures int
	// MinTextLength is the minimum document text length accepted. Default: 10.
	MinTextLength int
	// DebounceWindow is the time a redline deletion waits for adjacent deletions. Default: 10s.
	DebounceWindow time.Duration

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.BaseURL == "" {
		c.BaseURL = conventions.DefaultBaseURL
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("could not get user home dir: %w", err)
		}
		c.DataDir = filepath.Join(home, conventions.DefaultDataDir)
	}

	if c.DBPath == "" {
		c.DBPath = conventions.VaultDBPath(c.DataDir)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Client is the main SDK entry point.
//
// Create a Client with [New] and release its resources with [Client.Close].
// A Client is safe for concurrent use.
type Client struct {
	api     *api.Client
	vault   *vault.Vault
	cfg     Config
	logger  log.Logger
	closeFn func() error
}

// New creates a new SDK client backed by the analysis backend and a SQLite vault.
//
// The caller must call [Client.Close] when done to release the database
// connection. Typically used with defer:
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	apiClient, err := api.NewClient(api.ClientConfig{
		BaseURL:        cfg.BaseURL,
		HTTPClient:     cfg.HTTPClient,
		SessionCookies: cfg.SessionCookies,
		RateLimit:      cfg.RateLimit,
		Logger:         cfg.Logger,
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("could not create API client: %w", err))
	}

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: cfg.DBPath,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	v, err := vault.New(vault.Config{
		Repository: repo,
		Logger:     cfg.Logger,
	})
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("could not create vault: %w", err)
	}

	return &Client{
		api:     apiClient,
		vault:   v,
		cfg:     cfg,
		logger:  cfg.Logger,
		closeFn: repo.Close,
	}, nil
}

// Close releases resources held by the client, including the database connection.
// After Close returns, the client must not be used.
func (c *Client) Close() error {
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}
