package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/alecthomas/kingpin/v2"

	appredline "github.com/slok/legalflow/internal/app/redline"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/printer"
	"github.com/slok/legalflow/internal/redline"
)

type RedlineCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	original  string
	revised   []string
	reject    []int
	acceptAll bool
	export    string
	diffMode  string
	format    string
}

// NewRedlineCommand returns the redline command.
func NewRedlineCommand(rootCmd *RootCommand, app *kingpin.Application) *RedlineCommand {
	c := &RedlineCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("redline", "Track the changes between document revisions and review them.")
	c.Cmd.Flag("original", "Original document text file.").Required().ExistingFileVar(&c.original)
	c.Cmd.Flag("revised", "Revised document text file, repeat it for successive revisions.").Required().ExistingFilesVar(&c.revised)
	c.Cmd.Flag("reject", "Index of a change to reject (repeatable).").IntsVar(&c.reject)
	c.Cmd.Flag("accept-all", "Accept the changes that are not rejected.").BoolVar(&c.acceptAll)
	c.Cmd.Flag("export", "Export the redline PDF to a file or directory.").StringVar(&c.export)
	c.Cmd.Flag("diff-mode", "Edit detection strategy.").Default(string(redline.DiffModeMyers)).EnumVar(&c.diffMode, string(redline.DiffModeMyers), string(redline.DiffModeLengthDelta))
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c RedlineCommand) Name() string { return c.Cmd.FullCommand() }

func (c RedlineCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	clientCfg, err := c.rootCmd.ClientConfig(ctx)
	if err != nil {
		return err
	}

	cfg := appredline.ServiceConfig{
		DebounceWindow: clientCfg.DebounceWindow,
		DiffMode:       redline.DiffMode(c.diffMode),
		Logger:         logger,
	}
	if c.export != "" {
		client, err := c.rootCmd.NewAPIClient(clientCfg)
		if err != nil {
			return err
		}
		cfg.Exporter = client
	}

	svc, err := appredline.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	original, err := readTextFile(c.original)
	if err != nil {
		return fmt.Errorf("could not read original: %w", err)
	}
	revisions := make([]string, 0, len(c.revised))
	for _, path := range c.revised {
		data, err := readTextFile(path)
		if err != nil {
			return fmt.Errorf("could not read revision: %w", err)
		}
		revisions = append(revisions, data)
	}

	res, err := svc.Run(ctx, appredline.Request{
		Original:  original,
		Revisions: revisions,
		Reject:    c.reject,
		AcceptAll: c.acceptAll,
		Export:    c.export != "",
	})
	if err != nil {
		return fmt.Errorf("could not review redline: %w", err)
	}

	out := printer.Redline{
		Changes:  res.Changes,
		Rejected: res.Rejected,
		Buffer:   res.Buffer,
	}
	if res.Artifact != nil {
		path := exportPath(c.export, res.Artifact.Filename)
		if err := os.WriteFile(path, res.Artifact.Data, 0644); err != nil {
			return fmt.Errorf("could not write export: %w", err)
		}
		out.ExportPath = path
		out.ExportSize = int64(len(res.Artifact.Data))
	}

	if err := c.rootCmd.Printer(c.format).PrintRedline(out); err != nil {
		return fmt.Errorf("could not print redline: %w", err)
	}

	return nil
}

// exportPath returns the target file, a directory target uses the artifact filename.
func exportPath(target, filename string) string {
	if fi, err := os.Stat(target); err == nil && fi.IsDir() {
		return filepath.Join(target, filepath.Base(filename))
	}
	return target
}

// readTextFile reads a UTF-8 text file, other encodings need to be converted first.
func readTextFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", &model.ValidationError{Field: filepath.Base(path), Reason: "file is not valid UTF-8 text"}
	}
	return string(data), nil
}
