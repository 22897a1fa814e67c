package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/legalflow/internal/model"
)

// ConfigYAMLRepository loads client configuration profiles from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetClientConfig loads a profile from a YAML file and applies it over base.
// Settings missing in the profile keep the base value.
func (r *ConfigYAMLRepository) GetClientConfig(ctx context.Context, path string, base model.ClientConfig) (model.ClientConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.ClientConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.ClientConfig{}, ctx.Err()
	}

	var profile ClientProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return model.ClientConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	cfg, err := profile.apply(base)
	if err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ClientProfile represents the YAML structure of a client configuration profile.
type ClientProfile struct {
	BaseURL string         `yaml:"base_url"`
	Poll    PollProfile    `yaml:"poll"`
	Redline RedlineProfile `yaml:"redline"`

	MinTextLength int `yaml:"min_text_length"`
}

// PollProfile represents the YAML structure of the task polling settings.
type PollProfile struct {
	Interval    string `yaml:"interval"`
	Timeout     string `yaml:"timeout"`
	MaxFailures *int   `yaml:"max_failures"`
}

// RedlineProfile represents the YAML structure of the redlining settings.
type RedlineProfile struct {
	DebounceWindow string `yaml:"debounce_window"`
}

func (p ClientProfile) apply(cfg model.ClientConfig) (model.ClientConfig, error) {
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}

	var err error
	if cfg.PollInterval, err = parseDuration("poll.interval", p.Poll.Interval, cfg.PollInterval); err != nil {
		return cfg, err
	}
	if cfg.PollTimeout, err = parseDuration("poll.timeout", p.Poll.Timeout, cfg.PollTimeout); err != nil {
		return cfg, err
	}
	if cfg.DebounceWindow, err = parseDuration("redline.debounce_window", p.Redline.DebounceWindow, cfg.DebounceWindow); err != nil {
		return cfg, err
	}

	if p.Poll.MaxFailures != nil {
		if *p.Poll.MaxFailures <= 0 {
			return cfg, fmt.Errorf("poll.max_failures must be positive, got: %d", *p.Poll.MaxFailures)
		}
		cfg.MaxPollFailures = *p.Poll.MaxFailures
	}
	if p.MinTextLength < 0 {
		return cfg, fmt.Errorf("min_text_length can't be negative, got: %d", p.MinTextLength)
	}
	if p.MinTextLength > 0 {
		cfg.MinTextLength = p.MinTextLength
	}

	return cfg, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got: %s", field, value)
	}
	return d, nil
}
