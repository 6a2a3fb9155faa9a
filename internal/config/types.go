// Package config provides configuration loading and management for mcpchain.
//
// Configuration is loaded using Viper, supporting YAML config files and environment
// variable overrides. The package provides sensible defaults that work out of the
// box, with the ability to register command actions, pick a catalog backend and
// tune the chain executor.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//   - [ActionConfig] defines one command action
//   - [ExecutorConfig] contains chain executor settings
//
// Configuration priority (highest to lowest):
//  1. Environment variables (MCPCHAIN_ prefix)
//  2. Config file specified by MCPCHAIN_CONFIG_PATH
//  3. User config directory (platform-standard):
//     - Linux: ~/.config/mcpchain/config.yaml
//     - macOS: ~/Library/Application Support/mcpchain/config.yaml
//     - Windows: %APPDATA%\mcpchain\config.yaml
//  4. ./config/mcpchain.yaml
//  5. ./mcpchain.yaml
//  6. [DefaultConfig] defaults
package config

import "time"

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used throughout
// the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// Chain is the default chain used when no entries are given.
	Chain ChainConfig `mapstructure:"chain"`

	// Executor contains chain executor settings.
	Executor ExecutorConfig `mapstructure:"executor"`

	// Fallback configures the simulated action used for unregistered entries.
	Fallback FallbackConfig `mapstructure:"fallback"`

	// Actions maps action names to command actions.
	// Keys are matched against entry ids, or against manifest bindings.
	Actions map[string]ActionConfig `mapstructure:"actions"`

	// Catalog selects the entry catalog backend.
	Catalog CatalogConfig `mapstructure:"catalog"`

	// Manifest points at the optional chain manifest CSV.
	Manifest ManifestConfig `mapstructure:"manifest"`

	// Logging configures the slog logger.
	Logging LoggingConfig `mapstructure:"logging"`

	// Output contains terminal output formatting configuration.
	Output OutputConfig `mapstructure:"output"`
}

// ChainConfig defines the default chain.
type ChainConfig struct {
	// Steps is the ordered list of entry ids to run when the run command
	// receives neither entry ids nor a chain name. Empty by default.
	Steps []string `mapstructure:"steps"`
}

// ExecutorConfig contains chain executor settings.
type ExecutorConfig struct {
	// StepTimeout bounds each action invocation.
	// Default: 30s
	StepTimeout time.Duration `mapstructure:"step_timeout"`

	// StepDelay pauses between steps for pacing.
	// Default: 0 (no pause)
	StepDelay time.Duration `mapstructure:"step_delay"`

	// CarryForward selects what a step receives after its predecessor failed:
	// "null" (default) or "last-success".
	CarryForward string `mapstructure:"carry_forward"`
}

// FallbackConfig configures the simulated fallback action.
type FallbackConfig struct {
	// MinDelay and MaxDelay bound the random simulated duration.
	// Defaults: 200ms and 800ms
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
}

// ActionConfig represents a single command action.
//
// The command receives the step input as JSON on stdin and reports its result
// as JSON lines on stdout.
type ActionConfig struct {
	// Command is the executable to run.
	Command string `mapstructure:"command"`

	// Args are Go templates expanded per invocation.
	// Example: ["--server", "{{.EntryID}}"]
	Args []string `mapstructure:"args"`

	// Env entries (KEY=value) are added to the process environment.
	Env []string `mapstructure:"env"`

	// Dir is the working directory of the process.
	Dir string `mapstructure:"dir"`
}

// CatalogConfig selects the catalog backend.
type CatalogConfig struct {
	// Driver is "yaml" (default), "sqlite" or "postgres".
	Driver string `mapstructure:"driver"`

	// Path is the YAML file or SQLite database path.
	// Can be overridden with MCPCHAIN_CATALOG_PATH environment variable.
	Path string `mapstructure:"path"`

	// DSN is the Postgres connection string.
	// Can be overridden with MCPCHAIN_DATABASE_URL environment variable.
	DSN string `mapstructure:"dsn"`
}

// ManifestConfig points at the chain manifest.
type ManifestConfig struct {
	// Path is the manifest CSV path. Empty disables manifests.
	Path string `mapstructure:"path"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	// Default: "warn" (keeps terminal output readable)
	Level string `mapstructure:"level"`

	// Format is "text" or "json".
	// Default: "text"
	Format string `mapstructure:"format"`
}

// OutputConfig contains terminal output formatting configuration.
type OutputConfig struct {
	// TruncateLength is the maximum length of rendered outputs and errors.
	// Longer values are truncated with "..." suffix.
	// Default: 80
	TruncateLength int `mapstructure:"truncate_length"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults use the YAML catalog with auto-discovery, no registered
// actions (every entry runs the fallback), a 30 second step timeout and
// null carry-forward after failures.
func DefaultConfig() *Config {
	return &Config{
		Actions: map[string]ActionConfig{},
		Executor: ExecutorConfig{
			StepTimeout:  30 * time.Second,
			StepDelay:    0,
			CarryForward: "null",
		},
		Fallback: FallbackConfig{
			MinDelay: 200 * time.Millisecond,
			MaxDelay: 800 * time.Millisecond,
		},
		Catalog: CatalogConfig{
			Driver: "yaml",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputConfig{
			TruncateLength: 80,
		},
	}
}

// ArgData contains data for action argument template expansion.
//
// Fields are accessible in templates using {{.FieldName}} syntax.
type ArgData struct {
	// EntryID is the identifier of the entry being executed.
	// Access in templates with {{.EntryID}}.
	EntryID string
}
