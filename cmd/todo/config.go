package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/todo/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration todo would run with, as YAML.

Configuration is stored at ~/.config/todo/config.yaml
Project-specific overrides can be placed in .todo.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return renderConfig(cmd.OutOrStdout(), cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	Run: func(cmd *cobra.Command, args []string) {
		printPaths(cmd.OutOrStdout(), config.GetUserConfigPath(), config.GetProjectConfigPath())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the user config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GetUserConfigPath()
		if _, err := os.Stat(path); err == nil {
			printStatus(cmd.OutOrStdout(), "⚠", fmt.Sprintf("%s already exists, leaving it alone", path), color.FgYellow)
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}

		if err := config.Save(config.Default()); err != nil {
			return fmt.Errorf("writing default config: %w", err)
		}
		printStatus(cmd.OutOrStdout(), "✓", fmt.Sprintf("Created %s", path), color.FgGreen)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
}

// renderConfig writes the sources as comments followed by cfg as YAML.
func renderConfig(w io.Writer, cfg *config.Config) error {
	if len(cfg.Sources) == 0 {
		fmt.Fprintln(w, "# sources: built-in defaults")
	}
	for _, src := range cfg.Sources {
		fmt.Fprintf(w, "# source: %s\n", src)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

// printPaths shows where configuration is read from and whether each file exists.
func printPaths(w io.Writer, userPath, projectPath string) {
	if _, err := os.Stat(userPath); err == nil {
		printStatus(w, "✓", "user:    "+userPath, color.FgGreen)
	} else {
		printStatus(w, "✗", "user:    "+userPath+" (not found)", color.FgRed)
	}

	if projectPath != "" {
		printStatus(w, "✓", "project: "+projectPath, color.FgGreen)
	} else {
		printStatus(w, "✗", "project: no "+config.ProjectFileName+" found", color.FgRed)
	}
}

func printStatus(w io.Writer, symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Fprintf(w, "%s %s\n", c.Sprint(symbol), message)
}
