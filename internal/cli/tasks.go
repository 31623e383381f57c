package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/timebox/internal/lifecycle"
	"github.com/kingrea/timebox/internal/task"
	"github.com/kingrea/timebox/internal/timer"
	"github.com/kingrea/timebox/internal/tracker"
)

func newAddCmd(opts *globalOptions) *cobra.Command {
	var (
		kind  string
		days  []string
		hours int
		mins  int
		notes string
		start bool
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Long: `Add a one-time or routine task with a time allocation.

Examples:
  timebox add "Write report" --mins 30
  timebox add Gym --type routine --days mon,thu --hours 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedKind, err := task.ParseKind(kind)
			if err != nil {
				return err
			}
			parsedDays, err := task.ParseWeekdays(days)
			if err != nil {
				return err
			}
			in := task.Input{
				Text:          strings.Join(args, " "),
				Kind:          parsedKind,
				Days:          parsedDays,
				AllocatedMins: hours*60 + mins,
				Notes:         notes,
			}
			return withTracker(cmd, opts, func(tr *tracker.Tracker) error {
				created, err := tr.Controller().Add(in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d min)\n", created.Label(), created.AllocatedMins)
				if start && tr.Controller().Start(created.ID) {
					fmt.Fprintf(cmd.OutOrStdout(), "Started %s\n", created.Label())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(task.KindOneTime), "Task type: one-time or routine")
	cmd.Flags().StringSliceVarP(&days, "days", "d", nil, "Weekdays for a routine (mon,tue,...)")
	cmd.Flags().IntVar(&hours, "hours", 0, "Allocated hours")
	cmd.Flags().IntVarP(&mins, "mins", "m", 0, "Allocated minutes")
	cmd.Flags().StringVar(&notes, "notes", "", "Optional notes")
	cmd.Flags().BoolVar(&start, "start", false, "Start the task right away")
	return cmd
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks with their progress",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, func(tr *tracker.Tracker) error {
				tasks := tr.Controller().Tasks()
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					if tasks == nil {
						tasks = []task.Task{}
					}
					return enc.Encode(tasks)
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
					return nil
				}
				now := tr.Now()
				tbl := table.New().
					Border(lipgloss.NormalBorder()).
					Headers("ID", "STATE", "PROGRESS", "LEFT", "TYPE", "TASK")
				for _, t := range tasks {
					tbl.Row(
						strconv.FormatInt(t.ID, 10),
						string(t.State()),
						fmt.Sprintf("%3.0f%%", timer.Progress(t, now)),
						fmt.Sprintf("%dm", timer.MinutesLeft(t, now)),
						describeKind(t),
						t.Text,
					)
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), tbl.String())
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored JSON")
	return cmd
}

func newStartCmd(opts *globalOptions) *cobra.Command {
	return transitionCmd(opts, "start", "Start a task's countdown", "Started", (*lifecycle.Controller).Start)
}

func newStopCmd(opts *globalOptions) *cobra.Command {
	return transitionCmd(opts, "stop", "Stop a running task without completing it", "Stopped", (*lifecycle.Controller).Stop)
}

func newFinishCmd(opts *globalOptions) *cobra.Command {
	return transitionCmd(opts, "finish", "Mark a task as done", "Finished", (*lifecycle.Controller).Finish)
}

// transitionCmd builds the id-taking commands. Unknown ids and transitions
// that do not apply are reported but are not errors.
func transitionCmd(opts *globalOptions, use, short, verb string, apply func(*lifecycle.Controller, int64) bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return withTracker(cmd, opts, func(tr *tracker.Tracker) error {
				ctrl := tr.Controller()
				// Catch up on expiries first so a stale run is not stopped
				// after it already finished.
				ctrl.Tick(tr.Now())
				t, ok := ctrl.Lookup(id)
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "No task with id %d\n", id)
					return nil
				}
				if !apply(ctrl, id) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s is already %s\n", t.Label(), t.State())
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, t.Label())
				return nil
			})
		},
	}
}

func newClearCmd(opts *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, func(tr *tracker.Tracker) error {
				n := len(tr.Controller().Tasks())
				if n > 0 && !yes {
					return fmt.Errorf("refusing to delete %d tasks without --yes", n)
				}
				if err := tr.Controller().ClearAll(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d tasks\n", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting all tasks")
	return cmd
}

// withTracker opens the core for one command and closes it afterwards.
func withTracker(cmd *cobra.Command, opts *globalOptions, fn func(*tracker.Tracker) error) error {
	tr, err := openTracker(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	runErr := fn(tr)
	if err := tr.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func describeKind(t task.Task) string {
	if t.Kind != task.KindRoutine {
		return string(t.Kind)
	}
	names := make([]string, len(t.Days))
	for i, day := range t.Days {
		names[i] = string(day)
	}
	return fmt.Sprintf("routine(%s)", strings.Join(names, ","))
}
