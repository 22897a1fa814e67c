package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/legalflow/internal/app/analyze"
	"github.com/slok/legalflow/internal/app/upload"
	"github.com/slok/legalflow/internal/log"
	"github.com/slok/legalflow/internal/model"
	"github.com/slok/legalflow/internal/utils/meta"
)

type AnalyzeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	kind       string
	file       string
	text       string
	documentID string
	name       string
	metadata   []string
	save       bool
	format     string
}

// NewAnalyzeCommand returns the analyze command.
func NewAnalyzeCommand(rootCmd *RootCommand, app *kingpin.Application) *AnalyzeCommand {
	c := &AnalyzeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("analyze", "Submit a document for analysis and wait for the result.")
	c.Cmd.Flag("kind", "Analysis job kind.").Default(string(model.JobKindAudit)).EnumVar(&c.kind, jobKinds()...)
	c.Cmd.Flag("file", "Document file, PDFs are uploaded to extract their text.").Short('f').StringVar(&c.file)
	c.Cmd.Flag("text", "Document text.").StringVar(&c.text)
	c.Cmd.Flag("doc", "ID of a vault document.").StringVar(&c.documentID)
	c.Cmd.Flag("name", "Name of the document when saved (default: file name).").StringVar(&c.name)
	c.Cmd.Flag("meta", "Metadata sent with the document (repeatable, KEY=VALUE or KEY to read it from the environment).").StringsVar(&c.metadata)
	c.Cmd.Flag("save", "Store the document and the analysis in the vault.").BoolVar(&c.save)
	addFormatFlag(c.Cmd, &c.format)

	return c
}

func (c AnalyzeCommand) Name() string { return c.Cmd.FullCommand() }

func (c AnalyzeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	inputs := 0
	for _, v := range []string{c.file, c.text, c.documentID} {
		if v != "" {
			inputs++
		}
	}
	if inputs != 1 {
		return fmt.Errorf("exactly one of --file, --text or --doc is required")
	}

	userMeta, err := meta.ParseSpecs(c.metadata)
	if err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}

	clientCfg, err := c.rootCmd.ClientConfig(ctx)
	if err != nil {
		return err
	}
	client, err := c.rootCmd.NewAPIClient(clientCfg)
	if err != nil {
		return err
	}

	cfg := analyze.ServiceConfig{
		Client:          client,
		PollInterval:    clientCfg.PollInterval,
		RequestTimeout:  clientCfg.PollTimeout,
		MaxPollFailures: clientCfg.MaxPollFailures,
		MinTextLength:   clientCfg.MinTextLength,
		Logger:          logger,
	}
	if c.save || c.documentID != "" {
		v, closeVault, err := c.rootCmd.NewVault(ctx)
		if err != nil {
			return err
		}
		defer closeVault()
		cfg.Vault = v
	}

	req := analyze.Request{
		Kind:       model.JobKind(c.kind),
		Text:       c.text,
		Name:       c.name,
		Source:     model.DocumentSourceInline,
		DocumentID: c.documentID,
		Save:       c.save,
		OnState:    stateLogger(logger),
	}

	var fileMeta map[string]any
	if c.file != "" {
		text, pages, source, err := c.readDocument(ctx, client)
		if err != nil {
			return err
		}
		req.Text, req.PageCount, req.Source = text, pages, source
		if req.Name == "" {
			req.Name = filepath.Base(c.file)
		}
		fileMeta = map[string]any{"filename": filepath.Base(c.file)}
		if pages > 0 {
			fileMeta["pageCount"] = pages
		}
	}
	req.Metadata = meta.Merge(fileMeta, userMeta)

	svc, err := analyze.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, runErr := svc.Run(ctx, req)
	if res == nil {
		return fmt.Errorf("could not analyze document: %w", runErr)
	}

	p := c.rootCmd.Printer(c.format)
	if err := p.PrintTaskState(res.State); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	if runErr != nil {
		if res.State.ActiveTaskID != "" {
			logger.Warningf("Task %s is still running on the backend, resume it with: legalflow task wait --kind %s %s", res.State.ActiveTaskID, c.kind, res.State.ActiveTaskID)
		}
		return fmt.Errorf("could not analyze document: %w", runErr)
	}

	if res.Analysis != nil {
		logger.Infof("Analysis %s stored for document %s", res.Analysis.ID, res.Analysis.DocumentID)
	}

	return nil
}

// readDocument returns the text of the document file, binary files are sent to the backend text extraction.
func (c AnalyzeCommand) readDocument(ctx context.Context, uploader upload.Uploader) (text string, pages int, source model.DocumentSource, err error) {
	data, err := os.ReadFile(c.file)
	if err != nil {
		return "", 0, "", fmt.Errorf("could not read document file: %w", err)
	}

	if !isPDF(c.file, data) && utf8.Valid(data) {
		return string(data), 0, model.DocumentSourceFile, nil
	}

	svc, err := upload.NewService(upload.ServiceConfig{
		Uploader: uploader,
		Logger:   c.rootCmd.Logger,
	})
	if err != nil {
		return "", 0, "", fmt.Errorf("could not create upload service: %w", err)
	}

	res, err := svc.Run(ctx, upload.Request{Filename: c.file, Content: bytes.NewReader(data)})
	if err != nil {
		return "", 0, "", err
	}

	return res.Upload.Text, res.Upload.PageCount, model.DocumentSourceUpload, nil
}

func isPDF(filename string, data []byte) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-"))
}

// stateLogger logs the task progress, the last logged phase and progress avoid repeating lines.
func stateLogger(logger log.Logger) func(model.TaskState) {
	var lastPhase model.PollPhase
	lastProgress := -1
	return func(s model.TaskState) {
		progress := -1
		if s.Task != nil {
			progress = s.Task.Progress
		}
		if s.Phase == lastPhase && progress == lastProgress {
			return
		}
		lastPhase, lastProgress = s.Phase, progress

		l := logger.WithValues(log.Kv{"phase": s.Phase})
		if s.ActiveTaskID != "" {
			l = l.WithValues(log.Kv{"task": s.ActiveTaskID})
		}
		if s.Err != nil {
			l.Warningf("Task state changed: %s", s.Err)
			return
		}
		if progress >= 0 {
			l.Infof("Task progress %d%%", progress)
			return
		}
		l.Infof("Task state changed")
	}
}
