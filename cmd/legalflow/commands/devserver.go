package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/legalflow/internal/api/fake"
	"github.com/slok/legalflow/internal/conventions"
)

// DevServerCommand runs the fake backend for local development.
type DevServerCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listen       string
	steps        int
	sessionToken string
	pollDelay    time.Duration
}

// NewDevServerCommand returns the dev-server command.
func NewDevServerCommand(rootCmd *RootCommand, app *kingpin.Application) *DevServerCommand {
	c := &DevServerCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("dev-server", "Run a local fake backend that serves the analysis, upload and export APIs.")
	c.Cmd.Flag("listen", "Address to listen on.").Default(conventions.DefaultDevServerAddress).StringVar(&c.listen)
	c.Cmd.Flag("steps", "Polls a task reports processing before finishing.").Default("2").IntVar(&c.steps)
	c.Cmd.Flag("session-token", "Require this session cookie value on every request.").StringVar(&c.sessionToken)
	c.Cmd.Flag("poll-delay", "Delay added to every result request.").DurationVar(&c.pollDelay)

	return c
}

func (c DevServerCommand) Name() string { return c.Cmd.FullCommand() }

func (c DevServerCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	srv, err := fake.NewServer(fake.ServerConfig{
		StepsToComplete: c.steps,
		SessionToken:    c.sessionToken,
		PollDelay:       c.pollDelay,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("could not create fake backend: %w", err)
	}

	if c.sessionToken != "" {
		logger.Infof("Session auth enabled, use --session-cookie %s=<token>", fake.SessionCookieName)
	}

	return srv.Run(ctx, c.listen)
}
