package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/lezoo/keep/internal/app"
	"github.com/lezoo/keep/internal/resource"
)

// Version is set at build time.
var Version = "dev"

// env is the state shared by every command of one invocation.
type env struct {
	ctx        context.Context
	stdout     io.Writer
	stderr     io.Writer
	configPath string
	jsonOut    bool
	appOpts    app.Options
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, args, stdout, stderr, app.Options{})
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer, base app.Options) int {
	e := &env{ctx: ctx, stdout: stdout, stderr: stderr, appOpts: base}
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetContext(ctx)

	if err := root.Execute(); err != nil {
		e.printError(err)
		return 1
	}
	return 0
}

func newRootCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "keep",
		Short:         "Notes, tasks and categories from the terminal",
		Long:          "keep is a terminal client for the notes and tasks API with a cached offline view.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (default ~/.config/keep/config.toml)")
	cmd.PersistentFlags().BoolVar(&e.jsonOut, "json", false, "Output in JSON format")

	cmd.AddCommand(newLoginCmd(e))
	cmd.AddCommand(newLogoutCmd(e))
	cmd.AddCommand(newWhoamiCmd(e))
	cmd.AddCommand(newCategoriesCmd(e))
	cmd.AddCommand(newNotesCmd(e))
	cmd.AddCommand(newTasksCmd(e))
	cmd.AddCommand(newSyncCmd(e))
	cmd.AddCommand(newTUICmd(e))
	cmd.AddCommand(newLogsCmd(e))
	return cmd
}

// open builds the application for one command. CLI commands log to stderr;
// the TUI logs to the configured file.
func (e *env) open(logToFile bool) (*app.App, error) {
	opts := e.appOpts
	if opts.Config == nil {
		opts.ConfigPath = e.configPath
	}
	opts.LogToFile = logToFile
	if opts.LogOutput == nil {
		opts.LogOutput = e.stderr
	}
	return app.New(e.ctx, opts)
}

// withApp opens the application, runs fn and closes it.
func (e *env) withApp(fn func(context.Context, *app.App) error) error {
	a, err := e.open(false)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.Log.WithError(cerr).Warn("close failed")
		}
	}()
	return fn(e.ctx, a)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (e *env) printError(err error) {
	msg := err.Error()
	if errors.Is(err, resource.ErrNotAuthenticated) {
		msg += " (run `keep login`)"
	}
	if e.jsonOut {
		raw, _ := sonic.ConfigStd.Marshal(errorResponse{Error: msg, Code: 1})
		_, _ = fmt.Fprintln(e.stdout, string(raw))
		return
	}
	_, _ = fmt.Fprintln(e.stderr, "Error:", msg)
}
