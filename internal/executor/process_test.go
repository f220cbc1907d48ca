package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestProcessRunner_Success(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "ok", `echo "hello from $(pwd -P)"`)

	var stdout, stderr bytes.Buffer
	r := NewProcessRunner(&stdout, &stderr)

	res := r.Run(context.Background(), Command{Path: script, Dir: dir})

	assert.True(t, res.OK())
	assert.Equal(t, 0, res.Code)
	realDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "hello from "+realDir)
}

func TestProcessRunner_ExitCode(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail", `echo oops >&2; exit 3`)

	var stdout, stderr bytes.Buffer
	res := NewProcessRunner(&stdout, &stderr).Run(context.Background(), Command{Path: script, Dir: dir})

	assert.False(t, res.OK())
	assert.Equal(t, 3, res.Code)
	assert.Error(t, res.Err)
	assert.Equal(t, "oops\n", stderr.String())
}

func TestProcessRunner_Args(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "echoargs", `echo "$@"`)

	var stdout bytes.Buffer
	res := NewProcessRunner(&stdout, &bytes.Buffer{}).Run(context.Background(),
		Command{Path: script, Args: []string{"--build", ".", "--parallel", "4"}, Dir: dir})

	require.True(t, res.OK())
	assert.Equal(t, "--build . --parallel 4\n", stdout.String())
}

func TestProcessRunner_NotFound(t *testing.T) {
	dir := t.TempDir()
	res := NewProcessRunner(&bytes.Buffer{}, &bytes.Buffer{}).Run(context.Background(),
		Command{Path: filepath.Join(dir, "missing-tool"), Dir: dir})

	assert.Equal(t, ExitNotFound, res.Code)
	assert.Error(t, res.Err)
}

func TestProcessRunner_NotOnPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	r := NewProcessRunner(nil, nil)

	res := r.Run(context.Background(), Command{Path: "cmake", Args: []string{"--version"}})
	assert.False(t, res.OK())
	assert.Equal(t, ExitNotFound, res.Code)
	assert.ErrorIs(t, res.Err, exec.ErrNotFound)
}

func TestProcessRunner_NotExecutable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0644))

	res := NewProcessRunner(&bytes.Buffer{}, &bytes.Buffer{}).Run(context.Background(), Command{Path: path, Dir: dir})

	assert.Equal(t, ExitNotRunnable, res.Code)
}

func TestProcessRunner_Timeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "hang", `exec sleep 10`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := NewProcessRunner(&bytes.Buffer{}, &bytes.Buffer{}).Run(ctx, Command{Path: script, Dir: dir})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, ExitTimeout, res.Code)
	assert.True(t, IsTimeoutError(res.Err))
}

func TestCommandString(t *testing.T) {
	c := Command{Path: "cmake", Args: []string{"--install", "."}}
	assert.Equal(t, "cmake --install .", c.String())
}

func TestIsTimeoutError(t *testing.T) {
	assert.False(t, IsTimeoutError(nil))
	assert.True(t, IsTimeoutError(NewTimeoutError("x", time.Time{})))
	assert.True(t, IsTimeoutError(context.DeadlineExceeded))
	assert.Equal(t, "x: timed out", NewTimeoutError("x", time.Time{}).Error())
}
