// Package executor runs external tools on behalf of the pipeline and the
// dependency builder, mapping process outcomes onto exit codes.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Exit codes used when a tool never produced one of its own.
// They follow the usual shell conventions.
const (
	ExitGeneric     = 1
	ExitNotRunnable = 126
	ExitNotFound    = 127
	ExitTimeout     = 124
)

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = 2 * time.Second

// Command describes one external process invocation.
type Command struct {
	Path string   // Program to run; absolute or relative to Dir
	Args []string // Arguments, not including Path
	Dir  string   // Working directory (empty = current dir)
}

// String renders the command as a single argv line.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result carries the exit code and the error, if any, of a finished command.
type Result struct {
	Code int
	Err  error
}

// OK reports whether the command exited 0.
func (r Result) OK() bool {
	return r.Code == 0 && r.Err == nil
}

// CommandRunner runs a command to completion.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) Result
}

// ProcessRunner executes commands as child processes.
// Children inherit the environment and stdin; their output is streamed to
// Stdout and Stderr unchanged.
type ProcessRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewProcessRunner creates a ProcessRunner streaming to the given writers.
// Nil writers default to os.Stdout and os.Stderr.
func NewProcessRunner(stdout, stderr io.Writer) *ProcessRunner {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &ProcessRunner{Stdout: stdout, Stderr: stderr}
}

// Run starts the command and blocks until it exits or ctx is done.
func (r *ProcessRunner) Run(ctx context.Context, c Command) Result {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	if err == nil {
		return Result{}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		deadline, _ := ctx.Deadline()
		return Result{Code: ExitTimeout, Err: NewTimeoutError(c.Path, deadline)}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			// killed by a signal
			code = ExitGeneric
		}
		return Result{Code: code, Err: err}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		return Result{Code: ExitNotFound, Err: fmt.Errorf("start %s: %w", c.Path, err)}
	case errors.Is(err, fs.ErrPermission):
		return Result{Code: ExitNotRunnable, Err: fmt.Errorf("start %s: %w", c.Path, err)}
	default:
		return Result{Code: ExitGeneric, Err: fmt.Errorf("start %s: %w", c.Path, err)}
	}
}

// TimeoutError reports a command killed because its deadline passed.
type TimeoutError struct {
	Path     string
	Deadline time.Time
}

// NewTimeoutError creates a TimeoutError.
func NewTimeoutError(path string, deadline time.Time) *TimeoutError {
	return &TimeoutError{Path: path, Deadline: deadline}
}

// Error implements the error interface for TimeoutError.
func (e *TimeoutError) Error() string {
	if e.Deadline.IsZero() {
		return fmt.Sprintf("%s: timed out", e.Path)
	}
	return fmt.Sprintf("%s: timed out at %s", e.Path, e.Deadline.Format("15:04:05"))
}

// Unwrap returns context.DeadlineExceeded to support error wrapping.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// IsTimeoutError checks if the error is or wraps a TimeoutError or context.DeadlineExceeded.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
