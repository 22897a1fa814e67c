package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/legalflow/internal/api"
	"github.com/slok/legalflow/internal/api/fake"
	"github.com/slok/legalflow/internal/conventions"
	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/poller"
	"github.com/slok/legalflow/internal/printer"
	"github.com/slok/legalflow/internal/redline"
	storageio "github.com/slok/legalflow/internal/storage/io"
	"github.com/slok/legalflow/internal/storage/sqlite"
	"github.com/slok/legalflow/internal/vault"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	formatTable = "table"
	formatJSON  = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	DataDir    string
	DBPath     string
	ConfigPath string

	// Client tuning, zero values are unset and fall back to the profile and the defaults.
	BaseURL         string
	SessionCookie   string
	RateLimit       float64
	PollInterval    time.Duration
	PollTimeout     time.Duration
	MaxPollFailures int
	MinTextLength   int
	DebounceWindow  time.Duration

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDataDir := filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir)
	app.Flag("data-dir", "Directory of the local vault and the configuration profile.").Default(defaultDataDir).StringVar(&c.DataDir)
	app.Flag("db-path", "Path to the SQLite vault file (default: <data-dir>/vault.db).").StringVar(&c.DBPath)
	app.Flag("config", "Path to a YAML client configuration profile (default: <data-dir>/config.yaml if present).").StringVar(&c.ConfigPath)

	app.Flag("base-url", "Backend base URL.").StringVar(&c.BaseURL)
	app.Flag("session-cookie", "Session cookie sent to the backend, as NAME=VALUE or only the value.").StringVar(&c.SessionCookie)
	app.Flag("rate-limit", "Maximum backend requests per second.").Float64Var(&c.RateLimit)
	app.Flag("poll-interval", "Interval between task result polls.").DurationVar(&c.PollInterval)
	app.Flag("poll-timeout", "Timeout of every backend request.").DurationVar(&c.PollTimeout)
	app.Flag("poll-max-failures", "Consecutive poll failures before giving up.").IntVar(&c.MaxPollFailures)
	app.Flag("min-text-length", "Minimum document text length accepted for analysis.").IntVar(&c.MinTextLength)
	app.Flag("debounce", "Time a redline deletion waits for adjacent deletions.").DurationVar(&c.DebounceWindow)

	return c
}

func (r *RootCommand) vaultDBPath() string {
	if r.DBPath != "" {
		return r.DBPath
	}
	return conventions.VaultDBPath(r.DataDir)
}

// ClientConfig resolves the client configuration: defaults, then the YAML profile, then the flags.
func (r *RootCommand) ClientConfig(ctx context.Context) (model.ClientConfig, error) {
	cfg := model.ClientConfig{
		BaseURL:         conventions.DefaultBaseURL,
		PollInterval:    poller.DefaultPollInterval,
		PollTimeout:     poller.DefaultRequestTimeout,
		MaxPollFailures: poller.DefaultMaxPollFailures,
		MinTextLength:   model.DefaultMinTextLength,
		DebounceWindow:  redline.DefaultDebounceWindow,
	}

	path := r.ConfigPath
	if path == "" {
		path = conventions.ConfigPath(r.DataDir)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	if path != "" {
		repo := storageio.NewConfigYAMLRepository(os.DirFS(filepath.Dir(path)))
		profile, err := repo.GetClientConfig(ctx, filepath.Base(path), cfg)
		if err != nil {
			return model.ClientConfig{}, fmt.Errorf("could not load config profile %s: %w", path, err)
		}
		r.Logger.Debugf("Client config profile loaded from %s", path)
		cfg = profile
	}

	if r.BaseURL != "" {
		cfg.BaseURL = r.BaseURL
	}
	if r.PollInterval > 0 {
		cfg.PollInterval = r.PollInterval
	}
	if r.PollTimeout > 0 {
		cfg.PollTimeout = r.PollTimeout
	}
	if r.MaxPollFailures > 0 {
		cfg.MaxPollFailures = r.MaxPollFailures
	}
	if r.MinTextLength > 0 {
		cfg.MinTextLength = r.MinTextLength
	}
	if r.DebounceWindow > 0 {
		cfg.DebounceWindow = r.DebounceWindow
	}

	if err := cfg.Validate(); err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid client configuration: %w", err)
	}

	return cfg, nil
}

// NewAPIClient returns the backend client for the resolved configuration.
func (r *RootCommand) NewAPIClient(cfg model.ClientConfig) (*api.Client, error) {
	var cookies []*http.Cookie
	if r.SessionCookie != "" {
		cookies = append(cookies, parseSessionCookie(r.SessionCookie))
	}

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:        cfg.BaseURL,
		SessionCookies: cookies,
		RateLimit:      r.RateLimit,
		Logger:         r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create API client: %w", err)
	}

	return client, nil
}

// NewVault opens the local document vault, the returned func closes it.
func (r *RootCommand) NewVault(ctx context.Context) (*vault.Vault, func() error, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: r.vaultDBPath(),
		Logger: r.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not create repository: %w", err)
	}

	v, err := vault.New(vault.Config{
		Repository: repo,
		Logger:     r.Logger,
	})
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("could not create vault: %w", err)
	}

	logger := r.Logger
	v.Subscribe(func(e vault.Event) {
		logger.WithValues(log.Kv{"revision": e.Revision, "document": e.DocumentID}).Debugf("Vault %s", e.Type)
	})

	return v, repo.Close, nil
}

// Printer returns the output printer for a format.
func (r *RootCommand) Printer(format string) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(r.Stdout)
	default:
		return printer.NewTablePrinter(r.Stdout)
	}
}

func parseSessionCookie(v string) *http.Cookie {
	name, value, ok := strings.Cut(v, "=")
	if !ok {
		return &http.Cookie{Name: fake.SessionCookieName, Value: v}
	}
	return &http.Cookie{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}
}

func addFormatFlag(cmd *kingpin.CmdClause, format *string) {
	cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(format, formatTable, formatJSON)
}

func jobKinds() []string {
	kinds := []string{}
	for _, k := range model.JobKinds() {
		kinds = append(kinds, string(k))
	}
	return kinds
}
