package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/scone-ci/internal/models"
	"github.com/harrison/scone-ci/internal/workspace"
)

// Environment variables read by the loader
const (
	EnvConfigPath  = "SCONE_CI_CONFIG"
	EnvLogLevel    = "SCONE_CI_LOG_LEVEL"
	EnvDryRun      = "SCONE_CI_DRY_RUN"
	EnvStepTimeout = "SCONE_CI_STEP_TIMEOUT"
)

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path, relative to the workspace unless absolute
	DBPath string `yaml:"db_path"`
}

// StepOverride replaces the executable of a named pipeline step
type StepOverride struct {
	Name       string `yaml:"name"`
	Executable string `yaml:"executable"`
}

// Config represents scone-ci configuration options
type Config struct {
	// WorkspaceEnv names the environment variable holding the workspace root
	WorkspaceEnv string `yaml:"workspace_env"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written
	LogDir string `yaml:"log_dir"`

	// StepTimeout bounds each step (0 = no timeout)
	StepTimeout time.Duration `yaml:"step_timeout"`

	// DryRun prints the steps without invoking them
	DryRun bool `yaml:"dry_run"`

	// SummaryFileEnv names the variable pointing at the CI job summary file
	SummaryFileEnv string `yaml:"summary_file_env"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`

	// Steps overrides step executables by name
	Steps []StepOverride `yaml:"steps"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		WorkspaceEnv:   workspace.DefaultEnvVar,
		LogLevel:       "info",
		LogDir:         filepath.Join(workspace.StateDir, "logs"),
		StepTimeout:    0,
		DryRun:         false,
		SummaryFileEnv: "GITHUB_STEP_SUMMARY",
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(workspace.StateDir, "history.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are parsed by hand so "90m" style strings work
	type yamlConfig struct {
		WorkspaceEnv   string         `yaml:"workspace_env"`
		LogLevel       string         `yaml:"log_level"`
		LogDir         string         `yaml:"log_dir"`
		StepTimeout    string         `yaml:"step_timeout"`
		DryRun         bool           `yaml:"dry_run"`
		SummaryFileEnv string         `yaml:"summary_file_env"`
		History        HistoryConfig  `yaml:"history"`
		Steps          []StepOverride `yaml:"steps"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.WorkspaceEnv != "" {
		cfg.WorkspaceEnv = yamlCfg.WorkspaceEnv
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.StepTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.StepTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid step_timeout format %q: %w", yamlCfg.StepTimeout, err)
		}
		cfg.StepTimeout = timeout
	}
	if yamlCfg.DryRun {
		cfg.DryRun = true
	}
	if yamlCfg.SummaryFileEnv != "" {
		cfg.SummaryFileEnv = yamlCfg.SummaryFileEnv
	}
	cfg.Steps = yamlCfg.Steps

	// history.enabled: false must win over the default, so check key presence
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, ok := rawMap["history"].(map[string]interface{}); ok {
			if _, exists := section["enabled"]; exists {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, exists := section["db_path"]; exists {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

// ConfigPath returns the config file location: $SCONE_CI_CONFIG if set,
// otherwise <workspace>/.scone-ci/config.yaml.
func ConfigPath(getenv func(string) string, ws string) string {
	if p := strings.TrimSpace(getenv(EnvConfigPath)); p != "" {
		return p
	}
	return workspace.Path(ws, "config.yaml")
}

// ApplyEnv overrides configuration values from SCONE_CI_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvDryRun)); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDryRun, v, err)
		}
		c.DryRun = dry
	}
	if v := strings.TrimSpace(getenv(EnvStepTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvStepTimeout, v, err)
		}
		c.StepTimeout = d
	}
	return nil
}

// StepOverrides returns the step executable overrides keyed by step name.
func (c *Config) StepOverrides() map[string]string {
	out := make(map[string]string, len(c.Steps))
	for _, s := range c.Steps {
		out[s.Name] = s.Executable
	}
	return out
}

// Validate validates the configuration values.
// Returns an error if any values are invalid.
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.StepTimeout < 0 {
		return fmt.Errorf("step_timeout must be >= 0, got %v", c.StepTimeout)
	}

	if strings.TrimSpace(c.WorkspaceEnv) == "" {
		return fmt.Errorf("workspace_env cannot be empty")
	}

	knownSteps := map[string]bool{
		models.StepBuild:     true,
		models.StepRearrange: true,
		models.StepPackage:   true,
	}
	seen := make(map[string]bool, len(c.Steps))
	for _, s := range c.Steps {
		if !knownSteps[s.Name] {
			return fmt.Errorf("steps: unknown step %q, must be one of: build, rearrange, package", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("steps: step %q listed more than once", s.Name)
		}
		seen[s.Name] = true
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}
