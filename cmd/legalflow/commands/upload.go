package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/legalflow/internal/app/upload"
)

type UploadCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file   string
	save   bool
	format string
}

// NewUploadCommand returns the upload command.
func NewUploadCommand(rootCmd *RootCommand, app *kingpin.Application) *UploadCommand {
	c := &UploadCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("upload", "Upload a document to extract its text.")
	c.Cmd.Arg("file", "Document file (PDF or text).").Required().ExistingFileVar(&c.file)
	c.Cmd.Flag("save", "Store the extracted text in the vault.").BoolVar(&c.save)
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c UploadCommand) Name() string { return c.Cmd.FullCommand() }

func (c UploadCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	clientCfg, err := c.rootCmd.ClientConfig(ctx)
	if err != nil {
		return err
	}
	client, err := c.rootCmd.NewAPIClient(clientCfg)
	if err != nil {
		return err
	}

	cfg := upload.ServiceConfig{
		Uploader: client,
		Logger:   logger,
	}
	if c.save {
		v, closeVault, err := c.rootCmd.NewVault(ctx)
		if err != nil {
			return err
		}
		defer closeVault()
		cfg.Vault = v
	}

	svc, err := upload.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	f, err := os.Open(c.file)
	if err != nil {
		return fmt.Errorf("could not open document: %w", err)
	}
	defer f.Close()

	res, err := svc.Run(ctx, upload.Request{
		Filename: c.file,
		Content:  f,
		Save:     c.save,
	})
	if err != nil {
		return fmt.Errorf("could not upload document: %w", err)
	}

	if err := c.rootCmd.Printer(c.format).PrintUpload(res.Upload, res.Document); err != nil {
		return fmt.Errorf("could not print upload: %w", err)
	}

	return nil
}
