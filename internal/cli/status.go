package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kingrea/timebox/internal/task"
	"github.com/kingrea/timebox/internal/timer"
	"github.com/kingrea/timebox/internal/tracker"
)

const statusLogLines = 5

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize tasks and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, func(tr *tracker.Tracker) error {
				out := cmd.OutOrStdout()
				ctrl := tr.Controller()
				now := tr.Now()
				ctrl.Tick(now)
				s := ctrl.Summary(now)
				fmt.Fprintf(out, "Tasks: %d (%d idle, %d running, %d done)\n", s.Total, s.Idle, s.Running, s.Completed)
				fmt.Fprintf(out, "Allocated: %d min, left: %d min\n", s.AllocatedMins, s.RemainingMins)
				for _, t := range ctrl.Tasks() {
					if t.Running {
						fmt.Fprintf(out, "  ▶ %s  %3.0f%%  %d min left\n", t.Label(), timer.Progress(t, now), timer.MinutesLeft(t, now))
					}
				}
				if err := tr.Adapter().LastError(); err != nil {
					fmt.Fprintf(out, "Last write failed: %v\n", err)
				}
				entries, total, err := tr.Logbook().Recent(statusLogLines)
				if err != nil {
					return err
				}
				if len(entries) > 0 {
					fmt.Fprintf(out, "\nRecent activity (%d of %d):\n", len(entries), total)
					for _, e := range entries {
						fmt.Fprintf(out, "  %s\n", e)
					}
				}
				return nil
			})
		},
	}
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Count down running tasks until they finish",
		Long: `Watch samples the clock while any task is running, completing tasks whose
allocation runs out and ringing the bell for each. It returns once nothing
is running, or on Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withTracker(cmd, opts, func(tr *tracker.Tracker) error {
				return watch(ctx, cmd, tr, quiet)
			})
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only report expiries")
	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, tr *tracker.Tracker, quiet bool) error {
	out := cmd.OutOrStdout()
	ctrl := tr.Controller()
	ctrl.Tick(tr.Now())
	if !ctrl.Running() {
		fmt.Fprintln(out, "No task is running.")
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return tr.Watch(ctx, func(now time.Time, expired []task.Task) {
		for _, t := range expired {
			fmt.Fprintf(out, "⏰ Time is up: %s (%d min)\n", t.Label(), t.AllocatedMins)
		}
		if !quiet {
			for _, t := range ctrl.Tasks() {
				if t.Running {
					fmt.Fprintf(out, "%s  %s  %3.0f%%  %s left\n",
						now.Format("15:04:05"), t.Label(), timer.Progress(t, now), timer.Remaining(t, now).Round(time.Second))
				}
			}
		}
		if !ctrl.Running() {
			cancel()
		}
	})
}
