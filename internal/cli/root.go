package cli

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/timebox/internal/config"
	"github.com/kingrea/timebox/internal/tracker"
	"github.com/kingrea/timebox/internal/tui"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	dir       string
	ephemeral bool
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand opens the board.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "timebox",
		Short: "timebox - time-boxed task tracker",
		Long: `timebox tracks one-time and routine tasks, each with a time allocation.

Start a task to run its countdown; it completes on its own when the
allocation runs out. State is kept in .timebox/ in the project directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", "", "Project directory (defaults to TIMEBOX_HOME or the working directory)")
	rootCmd.PersistentFlags().BoolVar(&opts.ephemeral, "ephemeral", false, "Keep tasks in memory only")

	rootCmd.AddCommand(newAddCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newStartCmd(opts))
	rootCmd.AddCommand(newStopCmd(opts))
	rootCmd.AddCommand(newFinishCmd(opts))
	rootCmd.AddCommand(newClearCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newVersionCmd(version))
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadConfig resolves the project directory and makes sure .timebox exists.
func loadConfig(opts *globalOptions) (*config.Config, error) {
	dir := opts.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		dir, err = config.ResolveProjectDir(cwd)
		if err != nil {
			return nil, err
		}
	}
	if err := config.InitTimeboxDir(dir); err != nil {
		return nil, fmt.Errorf("initializing .timebox directory: %w", err)
	}
	return config.NewConfig(dir)
}

// openTracker loads config and assembles the core. The bell rings on bell.
func openTracker(opts *globalOptions, bell io.Writer) (*tracker.Tracker, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	return tracker.Open(cfg, tracker.Options{Ephemeral: opts.ephemeral, Bell: bell})
}

func runBoard(cmd *cobra.Command, opts *globalOptions) error {
	tr, err := openTracker(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer tr.Close()

	app, err := tui.NewApp(tr.Controller(),
		tui.WithLogbook(tr.Logbook()),
		tui.WithTickInterval(tr.Config().TickInterval()),
	)
	if err != nil {
		return err
	}
	tr.Logbook().Info("Session opened · %d tasks", len(tr.Controller().Tasks()))
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the timebox version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "timebox %s\n", version)
		},
	}
}
