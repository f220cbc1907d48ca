package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/scone-ci/internal/models"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolve_DefaultVariable(t *testing.T) {
	dir := t.TempDir()

	got, err := Resolve(envMap(map[string]string{"GITHUB_WORKSPACE": dir}), "")
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestResolve_CustomVariable(t *testing.T) {
	dir := t.TempDir()

	got, err := Resolve(envMap(map[string]string{"CI_PROJECT_DIR": dir + "/./"}), "CI_PROJECT_DIR")
	require.NoError(t, err)
	assert.Equal(t, dir, got, "path is cleaned")
}

func TestResolve_RelativePathMadeAbsolute(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "ws"), 0755))
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	got, err := Resolve(envMap(map[string]string{"GITHUB_WORKSPACE": "ws"}), "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "ws", filepath.Base(got))
}

func TestResolve_Errors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	tests := []struct {
		name   string
		env    map[string]string
		reason string
	}{
		{"unset", map[string]string{}, "not set"},
		{"blank", map[string]string{"GITHUB_WORKSPACE": "   "}, "not set"},
		{"missing directory", map[string]string{"GITHUB_WORKSPACE": filepath.Join(dir, "nope")}, "does not exist"},
		{"regular file", map[string]string{"GITHUB_WORKSPACE": file}, "not a directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(envMap(tt.env), "")
			require.Error(t, err)
			assert.True(t, models.IsConfigurationError(err))
			assert.Contains(t, err.Error(), "GITHUB_WORKSPACE")
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestEnter(t *testing.T) {
	dir := t.TempDir()
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })

	require.NoError(t, Enter(dir))
	cwd, err := os.Getwd()
	require.NoError(t, err)

	want, _ := filepath.EvalSymlinks(dir)
	got, _ := filepath.EvalSymlinks(cwd)
	assert.Equal(t, want, got)

	err = Enter(filepath.Join(dir, "missing"))
	assert.True(t, models.IsConfigurationError(err))
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, filepath.Join("/ws", ".scone-ci", "logs"), Path("/ws", "logs"))
	assert.Equal(t, filepath.Join("/ws", ".scone-ci", "history.db"), Abs("/ws", ".scone-ci/history.db"))
	assert.Equal(t, "/var/log/ci", Abs("/ws", "/var/log/ci"))
	assert.Equal(t, "GITHUB_WORKSPACE=/ws", Describe("", "/ws"))
}
