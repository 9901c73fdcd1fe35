package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/todo/internal/config"
)

var (
	configFile string
	interval   time.Duration
	maxTasks   int
	autostart  bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "A to-do list that fills itself",
	Long: `todo opens a window with a scrolling to-do list and a Start/Stop button.

While started, a new task stamped with the current time is appended once per
interval (one second by default). Stop pauses production; closing the window
waits for the producer to finish before exiting.

Configuration is read from ~/.config/todo/config.yaml, then .todo.yaml in the
current directory or a parent, then TODO_* environment variables, then flags.
Edits to those files are applied while the window is open.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runTUI(cmd.Context(), cfg, autostart, func() (*config.Config, error) {
			return loadConfig(cmd)
		})
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Read configuration from this file only")

	rootCmd.Flags().DurationVar(&interval, "interval", 0, "Time between produced tasks (default from config, 1s)")
	rootCmd.Flags().IntVar(&maxTasks, "max-tasks", 0, "Maximum tasks kept in the list, 0 for unbounded (default from config, 10000)")
	rootCmd.Flags().BoolVar(&autostart, "autostart", false, "Press Start as soon as the window opens")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the window is open")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads the layered configuration, applies flag overrides and validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFromPath(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyFlagOverrides(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over the loaded values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if f := flags.Lookup("interval"); f != nil && f.Changed {
		cfg.Producer.Interval = interval
	}
	if f := flags.Lookup("max-tasks"); f != nil && f.Changed {
		cfg.TUI.MaxTasks = maxTasks
	}
	if f := flags.Lookup("log-file"); f != nil && f.Changed {
		cfg.Log.File = logFile
	}
}
