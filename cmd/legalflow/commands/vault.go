package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/legalflow/internal/app/vaultlist"
	"github.com/slok/legalflow/internal/app/vaultremove"
	"github.com/slok/legalflow/internal/app/vaultshow"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/printer"
)

// NewVaultCommand returns the vault parent command.
func NewVaultCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("vault", "Manage the local document vault.")
}

type VaultListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	name   string
	source string
	format string
}

// NewVaultListCommand returns the vault list command.
func NewVaultListCommand(rootCmd *RootCommand, vaultCmd *kingpin.CmdClause) *VaultListCommand {
	c := &VaultListCommand{rootCmd: rootCmd}

	c.Cmd = vaultCmd.Command("list", "List the vault documents.").Alias("ls")
	c.Cmd.Flag("name", "Filter by name (case insensitive substring).").StringVar(&c.name)
	c.Cmd.Flag("source", "Filter by source.").EnumVar(&c.source, string(model.DocumentSourceUpload), string(model.DocumentSourceFile), string(model.DocumentSourceInline))
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c VaultListCommand) Name() string { return c.Cmd.FullCommand() }

func (c VaultListCommand) Run(ctx context.Context) error {
	v, closeVault, err := c.rootCmd.NewVault(ctx)
	if err != nil {
		return err
	}
	defer closeVault()

	svc, err := vaultlist.NewService(vaultlist.ServiceConfig{
		Vault:  v,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	req := vaultlist.Request{NameFilter: c.name}
	if c.source != "" {
		source := model.DocumentSource(c.source)
		req.SourceFilter = &source
	}

	docs, err := svc.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("could not list documents: %w", err)
	}

	if err := c.rootCmd.Printer(c.format).PrintDocumentList(docs); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}

type VaultShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	documentID string
	format     string
}

// NewVaultShowCommand returns the vault show command.
func NewVaultShowCommand(rootCmd *RootCommand, vaultCmd *kingpin.CmdClause) *VaultShowCommand {
	c := &VaultShowCommand{rootCmd: rootCmd}

	c.Cmd = vaultCmd.Command("show", "Show a vault document and its analyses.")
	c.Cmd.Arg("id", "Document ID.").Required().StringVar(&c.documentID)
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c VaultShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c VaultShowCommand) Run(ctx context.Context) error {
	v, closeVault, err := c.rootCmd.NewVault(ctx)
	if err != nil {
		return err
	}
	defer closeVault()

	svc, err := vaultshow.NewService(vaultshow.ServiceConfig{
		Vault:  v,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, vaultshow.Request{DocumentID: c.documentID})
	if err != nil {
		return fmt.Errorf("could not show document: %w", err)
	}

	if err := c.rootCmd.Printer(c.format).PrintDocument(res.Document, res.Analyses); err != nil {
		return fmt.Errorf("could not print document: %w", err)
	}

	return nil
}

type VaultRemoveCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	documentIDs []string
}

// NewVaultRemoveCommand returns the vault rm command.
func NewVaultRemoveCommand(rootCmd *RootCommand, vaultCmd *kingpin.CmdClause) *VaultRemoveCommand {
	c := &VaultRemoveCommand{rootCmd: rootCmd}

	c.Cmd = vaultCmd.Command("rm", "Remove vault documents and their analyses.")
	c.Cmd.Arg("ids", "Document IDs.").Required().StringsVar(&c.documentIDs)

	return c
}

func (c VaultRemoveCommand) Name() string { return c.Cmd.FullCommand() }

func (c VaultRemoveCommand) Run(ctx context.Context) error {
	v, closeVault, err := c.rootCmd.NewVault(ctx)
	if err != nil {
		return err
	}
	defer closeVault()

	svc, err := vaultremove.NewService(vaultremove.ServiceConfig{
		Vault:  v,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	removed, runErr := svc.Run(ctx, vaultremove.Request{DocumentIDs: c.documentIDs})

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	for _, d := range removed {
		if err := p.PrintMessage(fmt.Sprintf("Removed document: %s (%s)", d.Name, d.ID)); err != nil {
			return fmt.Errorf("could not print message: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("could not remove documents: %w", runErr)
	}

	return nil
}
