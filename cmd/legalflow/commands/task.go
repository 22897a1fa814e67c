package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/legalflow/internal/app/taskstatus"
	"github.com/slok/legalflow/internal/model"
)

// NewTaskCommand returns the task parent command.
func NewTaskCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("task", "Inspect analysis tasks already submitted to the backend.")
}

type TaskCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	wait   bool
	taskID string
	kind   string
	format string
}

// NewTaskStatusCommand returns the task status command.
func NewTaskStatusCommand(rootCmd *RootCommand, taskCmd *kingpin.CmdClause) *TaskCommand {
	c := &TaskCommand{rootCmd: rootCmd}
	c.Cmd = taskCmd.Command("status", "Check the status of a task once.")
	c.registerFlags()
	return c
}

// NewTaskWaitCommand returns the task wait command.
func NewTaskWaitCommand(rootCmd *RootCommand, taskCmd *kingpin.CmdClause) *TaskCommand {
	c := &TaskCommand{rootCmd: rootCmd, wait: true}
	c.Cmd = taskCmd.Command("wait", "Resume polling a task until it finishes.")
	c.registerFlags()
	return c
}

func (c *TaskCommand) registerFlags() {
	c.Cmd.Arg("task-id", "Backend task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("kind", "Analysis job kind the task was submitted as.").Default(string(model.JobKindAudit)).EnumVar(&c.kind, jobKinds()...)
	addFormatFlag(c.Cmd, &c.format)
}

func (c TaskCommand) Name() string { return c.Cmd.FullCommand() }

func (c TaskCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	clientCfg, err := c.rootCmd.ClientConfig(ctx)
	if err != nil {
		return err
	}
	client, err := c.rootCmd.NewAPIClient(clientCfg)
	if err != nil {
		return err
	}

	svc, err := taskstatus.NewService(taskstatus.ServiceConfig{
		Client:          client,
		PollInterval:    clientCfg.PollInterval,
		RequestTimeout:  clientCfg.PollTimeout,
		MaxPollFailures: clientCfg.MaxPollFailures,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	req := taskstatus.Request{
		Kind:   model.JobKind(c.kind),
		TaskID: c.taskID,
		Wait:   c.wait,
	}
	if c.wait {
		req.OnState = stateLogger(logger)
	}

	task, runErr := svc.Run(ctx, req)
	if task != nil {
		if err := c.rootCmd.Printer(c.format).PrintTask(*task); err != nil {
			return fmt.Errorf("could not print task: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("could not get task %s: %w", c.taskID, runErr)
	}

	return nil
}
