package cmd

import (
	"os"
	"strings"

	"github.com/harrison/scone-ci/internal/config"
	"github.com/harrison/scone-ci/internal/models"
	"github.com/harrison/scone-ci/internal/workspace"
)

// settings is the resolved workspace plus its effective configuration.
type settings struct {
	workspace  string
	configPath string
	cfg        *config.Config
}

// loadSettings resolves the workspace and configuration from the environment.
// An explicit $SCONE_CI_CONFIG is read first so it can rename the workspace
// variable; otherwise the workspace's own config file is used.
func loadSettings(getenv func(string) string) (*settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg, explicit, err := bootstrapConfig(getenv)
	if err != nil {
		return nil, err
	}

	ws, err := workspace.Resolve(getenv, cfg.WorkspaceEnv)
	if err != nil {
		return nil, err
	}

	path := config.ConfigPath(getenv, ws)
	if explicit == "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, models.NewConfigurationError("config", path, "cannot load config", err)
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, models.NewConfigurationError("environment", "", "invalid override", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, models.NewConfigurationError("config", path, "invalid configuration", err)
	}

	return &settings{workspace: ws, configPath: path, cfg: cfg}, nil
}

// bootstrapConfig returns the configuration known before the workspace is:
// $SCONE_CI_CONFIG when set, defaults otherwise. Its WorkspaceEnv names the
// variable holding the workspace root.
func bootstrapConfig(getenv func(string) string) (*config.Config, string, error) {
	explicit := strings.TrimSpace(getenv(config.EnvConfigPath))
	if explicit == "" {
		return config.DefaultConfig(), "", nil
	}
	cfg, err := config.LoadConfig(explicit)
	if err != nil {
		return nil, explicit, models.NewConfigurationError(config.EnvConfigPath, explicit, "cannot load config", err)
	}
	return cfg, explicit, nil
}

func (s *settings) historyPath() string {
	return workspace.Abs(s.workspace, s.cfg.History.DBPath)
}

func (s *settings) logDir() string {
	return workspace.Abs(s.workspace, s.cfg.LogDir)
}
