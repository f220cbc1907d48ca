package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/scone-ci/internal/filelock"
	"github.com/harrison/scone-ci/internal/models"
	"github.com/harrison/scone-ci/internal/workspace"
)

var toolNames = []string{
	"unix_2d_build-scone",
	"linux_3_create-install-dirtree",
	"linux_4_package",
}

const allLabels = "[run] building SCONE\n[run] rearranging binaries\n[run] packaging deb\n"

// setupWorkspace creates a workspace, points GITHUB_WORKSPACE at it and
// clears every variable that could leak in from the environment running the
// tests. The working directory is restored when the test ends.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	ws := t.TempDir()
	prevWD, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prevWD) })
	t.Setenv(workspace.DefaultEnvVar, ws)
	for _, v := range []string{"SCONE_CI_CONFIG", "SCONE_CI_LOG_LEVEL", "SCONE_CI_DRY_RUN", "SCONE_CI_STEP_TIMEOUT", "GITHUB_STEP_SUMMARY"} {
		t.Setenv(v, "")
	}
	return ws
}

// writeTools installs stub tools that append their name to a trace file and
// exit with the given code (0 when absent).
func writeTools(t *testing.T, ws string, codes map[string]int) string {
	t.Helper()
	trace := filepath.Join(t.TempDir(), "trace")
	for _, name := range toolNames {
		writeTool(t, filepath.Join(ws, name), name, trace, codes[name])
	}
	return trace
}

func writeTool(t *testing.T, path, name, trace string, code int) {
	t.Helper()
	script := "#!/bin/sh\n" +
		"echo " + name + " >> '" + trace + "'\n" +
		"echo ran " + name + "\n" +
		"exit " + strconv.Itoa(code) + "\n"
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
}

func readTrace(t *testing.T, trace string) []string {
	t.Helper()
	data, err := os.ReadFile(trace)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Fields(string(data))
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if args == nil {
		// cobra falls back to os.Args when given nil
		args = []string{}
	}
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func labelLines(stdout string) []string {
	var labels []string
	for _, line := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(line, "[run] ") {
			labels = append(labels, line)
		}
	}
	return labels
}

func TestRunPipeline_AllStepsSucceed(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)

	stdout, _, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, 0, models.ExitCode(err))

	assert.Equal(t, toolNames, readTrace(t, trace))
	assert.Equal(t,
		"[run] building SCONE\nran unix_2d_build-scone\n"+
			"[run] rearranging binaries\nran linux_3_create-install-dirtree\n"+
			"[run] packaging deb\nran linux_4_package\n",
		stdout)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	wantWS, err := filepath.EvalSymlinks(ws)
	require.NoError(t, err)
	gotWS, err := filepath.EvalSymlinks(cwd)
	require.NoError(t, err)
	assert.Equal(t, wantWS, gotWS, "process should be inside the workspace")

	assert.FileExists(t, workspace.Path(ws, "last-run.yaml"))
	assert.FileExists(t, workspace.Path(ws, "history.db"))
	assert.FileExists(t, workspace.Path(ws, "logs", "latest.log"))
}

func TestRunPipeline_StopsAtFirstFailure(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, map[string]int{"linux_3_create-install-dirtree": 3})

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, models.IsStepFailure(err))
	assert.Equal(t, 3, models.ExitCode(err))

	assert.Equal(t, toolNames[:2], readTrace(t, trace))
	assert.Equal(t, []string{"[run] building SCONE", "[run] rearranging binaries"}, labelLines(stdout))
	assert.NotContains(t, stdout, "[run] packaging deb")

	data, err := os.ReadFile(workspace.Path(ws, "last-run.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "failed_step: rearrange")
}

func TestRunPipeline_FirstStepFails(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, map[string]int{"unix_2d_build-scone": 1})

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.Equal(t, 1, models.ExitCode(err))
	assert.Equal(t, toolNames[:1], readTrace(t, trace))
	assert.Equal(t, []string{"[run] building SCONE"}, labelLines(stdout))
}

func TestRunPipeline_LastStepFails(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, map[string]int{"linux_4_package": 7})

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.Equal(t, 7, models.ExitCode(err))
	assert.Equal(t, toolNames, readTrace(t, trace))
	assert.Equal(t, strings.Split(strings.TrimSuffix(allLabels, "\n"), "\n"), labelLines(stdout))
}

func TestRunPipeline_MissingWorkspaceVariable(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)
	t.Setenv(workspace.DefaultEnvVar, "")

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
	assert.Contains(t, err.Error(), workspace.DefaultEnvVar)
	assert.NotEqual(t, 0, models.ExitCode(err))
	assert.Empty(t, stdout, "no label may be printed before configuration is valid")
	assert.Empty(t, readTrace(t, trace))
}

func TestRunPipeline_WorkspaceDoesNotExist(t *testing.T) {
	setupWorkspace(t)
	t.Setenv(workspace.DefaultEnvVar, filepath.Join(t.TempDir(), "missing"))

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
	assert.Empty(t, stdout)
}

func TestRunPipeline_MissingTool(t *testing.T) {
	ws := setupWorkspace(t)
	trace := filepath.Join(t.TempDir(), "trace")
	writeTool(t, filepath.Join(ws, toolNames[0]), toolNames[0], trace, 0)

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, models.IsStepFailure(err))
	assert.Equal(t, 127, models.ExitCode(err))
	assert.Equal(t, toolNames[:1], readTrace(t, trace))
	assert.Equal(t, []string{"[run] building SCONE", "[run] rearranging binaries"}, labelLines(stdout))
}

func TestRunPipeline_RejectsArguments(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)

	_, _, err := execute(t, "extra")
	require.Error(t, err)
	assert.Empty(t, readTrace(t, trace))
}

func TestRunPipeline_DryRun(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)
	t.Setenv("SCONE_CI_DRY_RUN", "true")

	stdout, _, err := execute(t)
	require.NoError(t, err)
	assert.Empty(t, readTrace(t, trace))
	assert.Equal(t, strings.Split(strings.TrimSuffix(allLabels, "\n"), "\n"), labelLines(stdout))
	assert.Contains(t, stdout, "+ "+filepath.Join(ws, toolNames[0]))
	assert.NoFileExists(t, workspace.Path(ws, "history.db"))
}

func TestRunPipeline_InvalidEnvOverride(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)
	t.Setenv("SCONE_CI_STEP_TIMEOUT", "forever")

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
	assert.Empty(t, stdout)
	assert.Empty(t, readTrace(t, trace))
}

func TestRunPipeline_StepOverrideFromConfig(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)
	writeTool(t, filepath.Join(ws, "tools", "pkg.sh"), "custom-package", trace, 0)

	cfg := "steps:\n  - name: package\n    executable: tools/pkg.sh\nhistory:\n  enabled: false\n"
	require.NoError(t, os.MkdirAll(workspace.Path(ws), 0755))
	require.NoError(t, os.WriteFile(workspace.Path(ws, "config.yaml"), []byte(cfg), 0644))

	_, _, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, []string{toolNames[0], toolNames[1], "custom-package"}, readTrace(t, trace))
	assert.NoFileExists(t, workspace.Path(ws, "history.db"))
}

func TestRunPipeline_UnknownStepOverride(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)

	cfg := "steps:\n  - name: deploy\n    executable: deploy.sh\n"
	require.NoError(t, os.MkdirAll(workspace.Path(ws), 0755))
	require.NoError(t, os.WriteFile(workspace.Path(ws, "config.yaml"), []byte(cfg), 0644))

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
	assert.Empty(t, stdout)
	assert.Empty(t, readTrace(t, trace))
}

func TestRunPipeline_CustomWorkspaceVariable(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)
	t.Setenv(workspace.DefaultEnvVar, "")
	t.Setenv("CI_PROJECT_DIR", ws)

	cfgPath := filepath.Join(t.TempDir(), "scone-ci.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("workspace_env: CI_PROJECT_DIR\n"), 0644))
	t.Setenv("SCONE_CI_CONFIG", cfgPath)

	_, _, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, toolNames, readTrace(t, trace))
}

func TestRunPipeline_WorkspaceLocked(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)

	lock, err := filelock.AcquireRunLock(workspace.Path(ws, "run.lock"))
	require.NoError(t, err)
	defer lock.Unlock()

	stdout, _, err := execute(t)
	require.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "locked")
	assert.Empty(t, stdout)
	assert.Empty(t, readTrace(t, trace))
}

func TestRunPipeline_AppendsJobSummary(t *testing.T) {
	ws := setupWorkspace(t)
	writeTools(t, ws, nil)
	summary := filepath.Join(t.TempDir(), "summary.md")
	t.Setenv("GITHUB_STEP_SUMMARY", summary)

	_, _, err := execute(t)
	require.NoError(t, err)

	data, err := os.ReadFile(summary)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### SCONE release pipeline: SUCCEEDED")
	assert.Contains(t, string(data), "linux_4_package")
}

func TestRunPipeline_HistoryFailureIsWarning(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)

	// A directory where the database file should be makes Open fail.
	cfg := "history:\n  db_path: blocked\n"
	require.NoError(t, os.MkdirAll(filepath.Join(ws, "blocked", "x"), 0755))
	require.NoError(t, os.MkdirAll(workspace.Path(ws), 0755))
	require.NoError(t, os.WriteFile(workspace.Path(ws, "config.yaml"), []byte(cfg), 0644))

	_, stderr, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, toolNames, readTrace(t, trace))
	assert.Contains(t, stderr, "Run history not recorded")
}

func TestRunPipeline_UnwritableStateDirIsWarning(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)

	// A regular file where .scone-ci should be: lock, logs and state
	// files cannot be created, but the workspace itself is valid.
	require.NoError(t, os.WriteFile(filepath.Join(ws, workspace.StateDir), nil, 0644))
	cfgPath := filepath.Join(t.TempDir(), "scone-ci.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("history:\n  enabled: false\n"), 0644))
	t.Setenv("SCONE_CI_CONFIG", cfgPath)

	stdout, stderr, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, toolNames, readTrace(t, trace))
	assert.Equal(t, strings.Split(strings.TrimSuffix(allLabels, "\n"), "\n"), labelLines(stdout))
	assert.Contains(t, stderr, "Running without workspace lock")
}

func TestRunPipeline_IgnoresProcessArgs(t *testing.T) {
	ws := setupWorkspace(t)
	trace := writeTools(t, ws, nil)

	saved := os.Args
	os.Args = []string{"scone-ci.test", "-test.run", "Unrelated"}
	t.Cleanup(func() { os.Args = saved })

	_, _, err := execute(t)
	require.NoError(t, err)
	assert.Equal(t, toolNames, readTrace(t, trace))
}
