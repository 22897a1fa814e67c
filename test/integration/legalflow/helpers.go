package legalflow

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slok/legalflow/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "legalflow"
	}

	// go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("LEGALFLOW_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("legalflow binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "LEGALFLOW_INTEGRATION"
		envBinary     = "LEGALFLOW_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Env is an isolated environment: its own data dir and a dev-server backend.
type Env struct {
	Config  Config
	DataDir string
	BaseURL string
}

// NewEnv starts a dev-server on a free port and waits until it accepts connections.
func NewEnv(t *testing.T, config Config, extraArgs ...string) Env {
	t.Helper()

	addr := freeAddr(t)
	args := append([]string{"dev-server", "--listen", addr, "--steps", "1"}, extraArgs...)
	stop, err := testutils.StartLegalflow(context.Background(), nil, config.Binary, args)
	if err != nil {
		t.Fatalf("could not start dev-server: %s", err)
	}
	t.Cleanup(func() { _ = stop() })

	deadline := time.Now().Add(10 * time.Second)
	for {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dev-server not ready on %s: %s", addr, err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	return Env{
		Config:  config,
		DataDir: t.TempDir(),
		BaseURL: "http://" + addr,
	}
}

// Run executes a legalflow command against the environment.
func (e Env) Run(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	all := append([]string{"--data-dir", e.DataDir, "--base-url", e.BaseURL, "--poll-interval", "50ms"}, args...)
	return testutils.RunLegalflowArgs(ctx, nil, e.Config.Binary, all, true)
}

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("could not get a free port: %s", err)
	}
	defer l.Close()
	return l.Addr().String()
}
