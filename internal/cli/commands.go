package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/taskgrid/internal/app"
	"github.com/specialistvlad/taskgrid/internal/dag"
	"github.com/specialistvlad/taskgrid/internal/model"
	"github.com/specialistvlad/taskgrid/internal/planning"
	"github.com/specialistvlad/taskgrid/internal/taskgraph"
)

func (o *rootOptions) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API on the address configured in the server block.

Examples:
  taskgrid serve --config ./taskgrid.hcl
  taskgrid serve --log-level debug`,
		Args: exactArgs(0),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		}),
	}
}

func (o *rootOptions) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create tasks and dependencies from a YAML or JSON file ('-' reads stdin)",
		Args:  exactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			spec, err := taskgraph.DecodeGraphSpec(r)
			if err != nil {
				return err
			}
			res, err := a.Graph().ImportGraph(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}),
	}
}

func (o *rootOptions) depsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Inspect and edit task dependencies",
	}

	check := &cobra.Command{
		Use:   "check PREDECESSOR SUCCESSOR",
		Short: "Report whether a dependency may be added, without adding it",
		Args:  exactArgs(2),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			err := a.Graph().CheckDependency(cmd.Context(), args[0], args[1])
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			}
			return edgeExit(err)
		}),
	}

	add := &cobra.Command{
		Use:   "add PREDECESSOR SUCCESSOR",
		Short: "Add a dependency: SUCCESSOR cannot start before PREDECESSOR",
		Args:  exactArgs(2),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			if err := a.Graph().AddDependency(cmd.Context(), args[0], args[1]); err != nil {
				return edgeExit(err)
			}
			return printJSON(cmd.OutOrStdout(), model.Edge{Predecessor: args[0], Successor: args[1]})
		}),
	}

	remove := &cobra.Command{
		Use:   "remove PREDECESSOR SUCCESSOR",
		Short: "Remove a dependency",
		Args:  exactArgs(2),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Graph().RemoveDependency(cmd.Context(), args[0], args[1])
		}),
	}

	picker := &cobra.Command{
		Use:   "picker TASK",
		Short: "List candidate predecessors of TASK, marking the ones that would form a cycle",
		Args:  exactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			opts, err := a.Graph().Picker(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), opts)
		}),
	}

	chain := &cobra.Command{
		Use:   "chain TASK",
		Short: "Show the direct and transitive neighbours of TASK",
		Args:  exactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			c, err := a.Graph().Chain(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c)
		}),
	}

	cmd.AddCommand(check, add, remove, picker, chain)
	return cmd
}

// edgeExit turns a refused edge into a one-line message.
func edgeExit(err error) error {
	if ee := asEdgeError(err); ee != nil {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%s -> %s: %s", ee.Predecessor, ee.Successor, ee.Message())}
	}
	return err
}

func asEdgeError(err error) *dag.EdgeError {
	var ee *dag.EdgeError
	if errors.As(err, &ee) {
		return ee
	}
	return nil
}

func (o *rootOptions) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "List and delete tasks",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every task and event",
		Args:  exactArgs(0),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
			items, err := a.Store().ListItems(cmd.Context())
			if err != nil {
				return err
			}
			if items == nil {
				items = []model.Item{}
			}
			return printJSON(cmd.OutOrStdout(), items)
		}),
	}

	del := &cobra.Command{
		Use:   "delete TASK",
		Short: "Delete a task together with its dependencies",
		Args:  exactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Graph().DeleteTask(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(list, del)
	return cmd
}

func (o *rootOptions) dayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Place tasks on a day",
	}

	index := &cobra.Command{
		Use:   "index DAY",
		Short: "Show the items scheduled on DAY, grouped by start hour",
		Args:  exactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			idx, err := a.Planner().DayIndex(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, h := range idx.Hours() {
				for _, it := range idx.At(h) {
					fmt.Fprintf(w, "%s  %-8s  %s\n", it.Start, it.Kind, it.Title)
				}
			}
			return nil
		}),
	}

	var duration int
	place := &cobra.Command{
		Use:   "place DAY ITEM START",
		Short: "Place ITEM on DAY at START (HH:MM)",
		Args:  exactArgs(3),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			var dur *int
			if cmd.Flags().Changed("duration") {
				dur = &duration
			}
			pl, err := a.Planner().PlaceAt(cmd.Context(), args[0], args[1], args[2], dur)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pl)
		}),
	}
	place.Flags().IntVarP(&duration, "duration", "d", 0, "Duration in minutes. Defaults to the item's estimate.")

	unplace := &cobra.Command{
		Use:   "unplace ITEM",
		Short: "Return ITEM to the unscheduled pool",
		Args:  exactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			return a.Planner().Unplace(cmd.Context(), args[0])
		}),
	}

	cmd.AddCommand(index, place, unplace,
		o.planCmd("autoplan", "Fill DAY's free time with the local heuristic", (*planning.Session).AutoPlan),
		o.planCmd("optimize", "Ask the configured suggester for a plan of DAY", (*planning.Session).Optimize),
	)
	return cmd
}

// planCmd builds a command that produces a preview and, with --apply,
// writes it.
func (o *rootOptions) planCmd(name, short string, run func(*planning.Session, context.Context) (planning.Preview, error)) *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   name + " DAY",
		Short: short,
		Args:  exactArgs(1),
		RunE: o.withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			ctx := cmd.Context()
			s := a.Session()
			if err := s.SelectDay(ctx, args[0]); err != nil {
				return err
			}
			preview, err := run(s, ctx)
			if err != nil {
				return err
			}
			if !apply {
				return printJSON(cmd.OutOrStdout(), preview)
			}
			report, err := s.Apply(ctx)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Failed != nil {
				return &ExitError{Code: 1, Message: fmt.Sprintf("apply stopped at %s: %s", report.Failed.Placement.ItemID, report.Failed.Reason)}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the preview instead of only printing it.")
	return cmd
}
