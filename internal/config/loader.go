package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variable overrides.
const envPrefix = "MCPCHAIN"

// legacyConfigPaths are searched after the user config directory.
var legacyConfigPaths = []string{
	filepath.Join("config", "mcpchain.yaml"),
	"mcpchain.yaml",
}

// Loader loads configuration through Viper.
//
// Create with [NewLoader]; each Loader wraps its own Viper instance so tests
// can load configurations independently.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a Loader with env overrides enabled.
//
// Keys map to MCPCHAIN_ variables with dots replaced by underscores, e.g.
// executor.step_timeout → MCPCHAIN_EXECUTOR_STEP_TIMEOUT. A few shorter
// aliases are bound explicitly:
//   - MCPCHAIN_CATALOG_PATH → catalog.path
//   - MCPCHAIN_DATABASE_URL → catalog.dsn
//   - MCPCHAIN_LOG_LEVEL → logging.level
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("catalog.dsn", "MCPCHAIN_CATALOG_DSN", "MCPCHAIN_DATABASE_URL")
	_ = v.BindEnv("logging.level", "MCPCHAIN_LOGGING_LEVEL", "MCPCHAIN_LOG_LEVEL")

	return &Loader{v: v}
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("chain.steps", d.Chain.Steps)
	l.v.SetDefault("executor.step_timeout", d.Executor.StepTimeout)
	l.v.SetDefault("executor.step_delay", d.Executor.StepDelay)
	l.v.SetDefault("executor.carry_forward", d.Executor.CarryForward)
	l.v.SetDefault("fallback.min_delay", d.Fallback.MinDelay)
	l.v.SetDefault("fallback.max_delay", d.Fallback.MaxDelay)
	l.v.SetDefault("catalog.driver", d.Catalog.Driver)
	l.v.SetDefault("catalog.path", d.Catalog.Path)
	l.v.SetDefault("catalog.dsn", d.Catalog.DSN)
	l.v.SetDefault("manifest.path", d.Manifest.Path)
	l.v.SetDefault("logging.level", d.Logging.Level)
	l.v.SetDefault("logging.format", d.Logging.Format)
	l.v.SetDefault("output.truncate_length", d.Output.TruncateLength)
}

// Load discovers and loads the configuration.
//
// The first existing file among MCPCHAIN_CONFIG_PATH, [DefaultConfigPath] and
// the legacy paths is read; without any file, defaults and env overrides apply.
func (l *Loader) Load() (*Config, error) {
	path := os.Getenv("MCPCHAIN_CONFIG_PATH")
	if path == "" {
		path = discoverConfigFile()
	}
	if path == "" {
		return l.load("")
	}
	return l.LoadFromFile(path)
}

// LoadFromFile loads configuration from an explicit file. The format is
// derived from the file extension.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("error reading config file: empty path")
	}
	return l.load(path)
}

func (l *Loader) load(path string) (*Config, error) {
	l.setDefaults()

	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if cfg.Actions == nil {
		cfg.Actions = map[string]ActionConfig{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func discoverConfigFile() string {
	candidates := legacyConfigPaths
	if p, err := DefaultConfigPath(); err == nil {
		candidates = append([]string{p}, legacyConfigPaths...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// ConfigDir returns the platform-standard mcpchain config directory.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "mcpchain"), nil
}

// DefaultConfigPath returns the config file path in [ConfigDir].
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// EnsureConfigDir creates [ConfigDir] if needed and returns it.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}
	return dir, nil
}

// Validate checks values that cannot be expressed by the config types.
func (c *Config) Validate() error {
	switch c.Executor.CarryForward {
	case "", "null", "last-success":
	default:
		return fmt.Errorf("invalid executor.carry_forward %q (want null or last-success)", c.Executor.CarryForward)
	}

	switch c.Catalog.Driver {
	case "", "yaml", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid catalog.driver %q (want yaml, sqlite or postgres)", c.Catalog.Driver)
	}

	if c.Fallback.MinDelay < 0 || c.Fallback.MaxDelay < c.Fallback.MinDelay {
		return fmt.Errorf("invalid fallback delays: min %s, max %s", c.Fallback.MinDelay, c.Fallback.MaxDelay)
	}

	for name, a := range c.Actions {
		if a.Command == "" {
			return fmt.Errorf("action %q has no command", name)
		}
		for _, arg := range a.Args {
			if _, err := expandTemplate(arg, ArgData{EntryID: name}); err != nil {
				return fmt.Errorf("action %q: %w", name, err)
			}
		}
	}
	return nil
}

// expandTemplate expands a Go template string with data.
func expandTemplate(tmplStr string, data ArgData) (string, error) {
	tmpl, err := template.New("arg").Option("missingkey=error").Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to expand template: %w", err)
	}
	return buf.String(), nil
}
