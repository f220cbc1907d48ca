// Package workspace locates the CI workspace the pipeline runs in.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/scone-ci/internal/models"
)

// DefaultEnvVar is the variable the CI environment sets to the workspace root.
const DefaultEnvVar = "GITHUB_WORKSPACE"

// StateDir is the per-workspace directory holding logs, history and the run lock.
const StateDir = ".scone-ci"

// Resolve reads the workspace root from envVar and checks it is an existing
// directory. An empty envVar means DefaultEnvVar. The returned path is
// absolute and cleaned.
func Resolve(getenv func(string) string, envVar string) (string, error) {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	if getenv == nil {
		getenv = os.Getenv
	}

	raw := strings.TrimSpace(getenv(envVar))
	if raw == "" {
		return "", models.NewConfigurationError(envVar, "", "environment variable is not set", nil)
	}

	dir, err := filepath.Abs(raw)
	if err != nil {
		return "", models.NewConfigurationError(envVar, raw, "cannot make path absolute", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", models.NewConfigurationError(envVar, dir, "directory does not exist", nil)
		}
		return "", models.NewConfigurationError(envVar, dir, "cannot stat directory", err)
	}
	if !info.IsDir() {
		return "", models.NewConfigurationError(envVar, dir, "not a directory", nil)
	}

	return dir, nil
}

// Enter changes the process working directory to dir.
func Enter(dir string) error {
	if err := os.Chdir(dir); err != nil {
		return models.NewConfigurationError("workspace", dir, "cannot change into workspace", err)
	}
	return nil
}

// Path joins elem onto the workspace state directory.
func Path(workspace string, elem ...string) string {
	return filepath.Join(append([]string{workspace, StateDir}, elem...)...)
}

// Abs resolves p against workspace unless p is already absolute.
func Abs(workspace, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(workspace, p)
}

// Describe returns a one-line description of where the workspace came from.
func Describe(envVar, dir string) string {
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	return fmt.Sprintf("%s=%s", envVar, dir)
}
