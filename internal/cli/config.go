package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage timebox configuration",
	}

	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg.Project)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "# Effective configuration (config.yaml + TIMEBOX_* overrides)")
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration and state file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config:   %s\n", cfg.ProjectConfigPath())
			fmt.Fprintf(out, "Store:    %s (%s)\n", cfg.StorePath(), cfg.Backend())
			fmt.Fprintf(out, "Activity: %s\n", cfg.ActivityLogPath())
			fmt.Fprintf(out, "Debug:    %s\n", cfg.DebugLogPath())
			return nil
		},
	}

	configBackendCmd := &cobra.Command{
		Use:       "backend <file|sqlite|memory>",
		Short:     "Switch the storage backend",
		Long:      "Switch the storage backend. Tasks are not copied between backends.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"file", "sqlite", "memory"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := cfg.SetBackend(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Storage backend set to %s\n", cfg.Backend())
			return nil
		},
	}

	configCmd.AddCommand(configShowCmd, configPathCmd, configBackendCmd)
	return configCmd
}
