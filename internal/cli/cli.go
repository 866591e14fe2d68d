package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/taskgrid/internal/app"
	"github.com/specialistvlad/taskgrid/internal/config"
	"github.com/specialistvlad/taskgrid/internal/hcl_adapter"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Streams are the process's output destinations. Command results go to Out,
// logs go to Err.
type Streams struct {
	Out io.Writer
	Err io.Writer
}

type rootOptions struct {
	streams     Streams
	configPaths []string
	logFormat   string
	logLevel    string

	// loader is swapped in tests.
	loader config.Loader
}

// NewRootCommand builds the taskgrid command tree.
func NewRootCommand(streams Streams) *cobra.Command {
	o := &rootOptions{streams: streams, loader: hcl_adapter.NewLoader()}

	root := &cobra.Command{
		Use:   "taskgrid",
		Short: "taskgrid - dependency-aware day planning for tasks and events",
		Long: `taskgrid keeps a dependency graph of tasks acyclic and places flexible
tasks onto a day's time grid around fixed events.

Configuration is read from .hcl files given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	root.PersistentFlags().StringSliceVarP(&o.configPaths, "config", "c", nil, "Path to a .hcl file or directory. May be repeated.")
	root.PersistentFlags().StringVar(&o.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	root.AddCommand(
		o.serveCmd(),
		o.importCmd(),
		o.depsCmd(),
		o.taskCmd(),
		o.dayCmd(),
	)
	return root
}

// Execute runs the command tree with args. Usage problems are returned as an
// *ExitError with code 2.
func Execute(ctx context.Context, streams Streams, args []string) error {
	root := NewRootCommand(streams)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// open validates the global flags and wires an App.
func (o *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	slog.Debug("CLI parameter validation started.")
	appConfig, err := app.NewConfig(app.Config{
		ConfigPaths: o.configPaths,
		LogFormat:   o.logFormat,
		LogLevel:    o.logLevel,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return app.NewApp(cmd.Context(), o.streams.Err, appConfig, o.loader)
}

// withApp wires an App, runs fn, and closes the App afterwards.
func (o *rootOptions) withApp(fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := o.open(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.Logger().Warn("Failed to close application.", "error", cerr)
			}
		}()
		return fn(cmd, a, args)
	}
}

// exactArgs wraps cobra.ExactArgs so that a wrong count is a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	check := cobra.ExactArgs(n)
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError(fmt.Errorf("%s: %w", cmd.CommandPath(), err))
		}
		return nil
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
