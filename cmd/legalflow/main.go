package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/legalflow/cmd/legalflow/commands"
	"github.com/slok/legalflow/internal/conventions"
	"github.com/slok/legalflow/internal/log"
	loglogrus "github.com/slok/legalflow/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	// Env files only fill what the environment doesn't already set.
	if err := godotenv.Load(conventions.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("could not load %s file: %w", conventions.EnvFile, err)
	}

	app := kingpin.New("legalflow", "Legal document analysis and redline review client.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	analyzeCmd := commands.NewAnalyzeCommand(rootCmd, app)
	uploadCmd := commands.NewUploadCommand(rootCmd, app)
	redlineCmd := commands.NewRedlineCommand(rootCmd, app)
	devServerCmd := commands.NewDevServerCommand(rootCmd, app)

	// Task subcommands share a parent command.
	taskCmd := commands.NewTaskCommand(app)
	taskStatusCmd := commands.NewTaskStatusCommand(rootCmd, taskCmd)
	taskWaitCmd := commands.NewTaskWaitCommand(rootCmd, taskCmd)

	// Vault subcommands share a parent command.
	vaultCmd := commands.NewVaultCommand(app)
	vaultListCmd := commands.NewVaultListCommand(rootCmd, vaultCmd)
	vaultShowCmd := commands.NewVaultShowCommand(rootCmd, vaultCmd)
	vaultRmCmd := commands.NewVaultRemoveCommand(rootCmd, vaultCmd)

	cmds := map[string]commands.Command{
		analyzeCmd.Name():    analyzeCmd,
		uploadCmd.Name():     uploadCmd,
		redlineCmd.Name():    redlineCmd,
		devServerCmd.Name():  devServerCmd,
		taskStatusCmd.Name(): taskStatusCmd,
		taskWaitCmd.Name():   taskWaitCmd,
		vaultListCmd.Name():  vaultListCmd,
		vaultShowCmd.Name():  vaultShowCmd,
		vaultRmCmd.Name():    vaultRmCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Commands that only print a table or JSON don't log unless debugging.
	printerCommands := map[string]bool{
		"task status": true,
		"vault list":  true,
		"vault show":  true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // Stdout is for command output.
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled")

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
