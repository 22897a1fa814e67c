package model

import (
	"fmt"
	"time"
)

// ClientConfig is the tunable behaviour of the client side components.
type ClientConfig struct {
	BaseURL         string
	PollInterval    time.Duration
	PollTimeout     time.Duration
	MaxPollFailures int
	MinTextLength   int
	DebounceWindow  time.Duration
}

// Validate validates the client configuration.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required: %w", ErrNotValid)
	}
	if c.PollInterval < 0 || c.PollTimeout < 0 || c.DebounceWindow < 0 {
		return fmt.Errorf("durations can't be negative: %w", ErrNotValid)
	}
	if c.MaxPollFailures < 0 || c.MinTextLength < 0 {
		return fmt.Errorf("limits can't be negative: %w", ErrNotValid)
	}
	return nil
}
