// Package config handles configuration loading and management for todo.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/todo/pkg/models"
)

// ErrInvalid is wrapped by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// ProjectFileName is the per-project override file searched for upwards from
// the working directory.
const ProjectFileName = ".todo.yaml"

// Config holds all configuration for todo.
type Config struct {
	Producer ProducerConfig `mapstructure:"producer" yaml:"producer"`
	TUI      TUIConfig      `mapstructure:"tui" yaml:"tui"`
	Shutdown ShutdownConfig `mapstructure:"shutdown" yaml:"shutdown"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	// Sources lists the config files that were read, lowest precedence first.
	Sources []string `mapstructure:"-" yaml:"-"`
}

// ProducerConfig holds task producer settings.
type ProducerConfig struct {
	Interval        time.Duration `mapstructure:"interval" yaml:"interval"`
	Buffer          int           `mapstructure:"buffer" yaml:"buffer"`
	TimestampLayout string        `mapstructure:"timestamp_layout" yaml:"timestamp_layout"`
}

// TUIConfig holds window settings.
type TUIConfig struct {
	Title string `mapstructure:"title" yaml:"title"`
	// MaxTasks caps the number of tasks kept in the list. 0 means unbounded.
	MaxTasks int  `mapstructure:"max_tasks" yaml:"max_tasks"`
	Mouse    bool `mapstructure:"mouse" yaml:"mouse"`
}

// ShutdownConfig holds the close-window polling settings.
type ShutdownConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LogConfig holds log output settings.
type LogConfig struct {
	// File receives log output while the window is open. Empty discards it.
	File string `mapstructure:"file" yaml:"file"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TODO_PRODUCER_INTERVAL, TODO_TUI_MAX_TASKS, ...)
// 2. Project config (.todo.yaml in current directory or parent)
// 3. User config (~/.config/todo/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	var sources []string

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	} else {
		sources = append(sources, v.ConfigFileUsed())
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
		sources = append(sources, projectConfig)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	cfg.Sources = sources
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file, still honouring
// defaults and environment overrides.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}
	cfg.Sources = []string{path}
	return cfg, nil
}

// Save writes cfg to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(GetUserConfigPath())

	v.Set("producer.interval", cfg.Producer.Interval.String())
	v.Set("producer.buffer", cfg.Producer.Buffer)
	v.Set("producer.timestamp_layout", cfg.Producer.TimestampLayout)
	v.Set("tui.title", cfg.TUI.Title)
	v.Set("tui.max_tasks", cfg.TUI.MaxTasks)
	v.Set("tui.mouse", cfg.TUI.Mouse)
	v.Set("shutdown.poll_interval", cfg.Shutdown.PollInterval.String())
	v.Set("shutdown.timeout", cfg.Shutdown.Timeout.String())
	v.Set("log.file", cfg.Log.File)

	return v.WriteConfig()
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	var problems []string

	if c.Producer.Interval <= 0 {
		problems = append(problems, "producer.interval must be positive")
	}
	if c.Producer.Buffer <= 0 {
		problems = append(problems, "producer.buffer must be positive")
	}
	if strings.TrimSpace(c.Producer.TimestampLayout) == "" {
		problems = append(problems, "producer.timestamp_layout must not be empty")
	}
	if c.TUI.MaxTasks < 0 {
		problems = append(problems, "tui.max_tasks must not be negative")
	}
	if c.Shutdown.PollInterval <= 0 {
		problems = append(problems, "shutdown.poll_interval must be positive")
	}
	if c.Shutdown.Timeout <= 0 {
		problems = append(problems, "shutdown.timeout must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Producer: ProducerConfig{
			Interval:        time.Second,
			Buffer:          64,
			TimestampLayout: models.DefaultTimestampLayout,
		},
		TUI: TUIConfig{
			Title:    "Todo.v.3",
			MaxTasks: 10000,
			Mouse:    true,
		},
		Shutdown: ShutdownConfig{
			PollInterval: time.Second,
			Timeout:      5 * time.Second,
		},
	}
}

// newViper returns a viper instance with defaults and TODO_* env bindings.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("todo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Log.File = os.ExpandEnv(cfg.Log.File)
	return cfg, nil
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("producer.interval", d.Producer.Interval.String())
	v.SetDefault("producer.buffer", d.Producer.Buffer)
	v.SetDefault("producer.timestamp_layout", d.Producer.TimestampLayout)

	v.SetDefault("tui.title", d.TUI.Title)
	v.SetDefault("tui.max_tasks", d.TUI.MaxTasks)
	v.SetDefault("tui.mouse", d.TUI.Mouse)

	v.SetDefault("shutdown.poll_interval", d.Shutdown.PollInterval.String())
	v.SetDefault("shutdown.timeout", d.Shutdown.Timeout.String())

	v.SetDefault("log.file", "")
}

// getUserConfigDir returns the XDG config directory for todo.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "todo")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "todo")
	}
	return filepath.Join(home, ".config", "todo")
}

// findProjectConfig searches for .todo.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
