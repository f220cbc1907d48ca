package models

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError reports a problem detected before any step runs:
// a missing workspace variable, a bad workspace directory, an invalid
// config file, or a workspace already locked by another run.
type ConfigurationError struct {
	Field  string // Variable, key or path the error is about
	Value  string // Offending value (may be empty)
	Reason string // Human-readable explanation
	Err    error  // Underlying error (optional)
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(field, value, reason string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason, Err: err}
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration: ")
	sb.WriteString(e.Field)
	if e.Value != "" {
		sb.WriteString(fmt.Sprintf(" %q", e.Value))
	}
	sb.WriteString(": ")
	sb.WriteString(e.Reason)
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// StepFailure reports an external tool that exited non-zero or could not be started.
type StepFailure struct {
	Index    int   // Zero-based position of the failing step
	Step     Step  // The step that failed
	ExitCode int   // Exit code of the tool
	Err      error // Underlying error
}

// NewStepFailure creates a StepFailure.
func NewStepFailure(index int, step Step, code int, err error) *StepFailure {
	return &StepFailure{Index: index, Step: step, ExitCode: code, Err: err}
}

// Error implements the error interface for StepFailure.
func (e *StepFailure) Error() string {
	msg := fmt.Sprintf("step %d (%s) failed with exit code %d", e.Index+1, e.Step.Name, e.ExitCode)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *StepFailure) Unwrap() error {
	return e.Err
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsStepFailure reports whether err wraps a StepFailure.
func IsStepFailure(err error) bool {
	var sf *StepFailure
	return errors.As(err, &sf)
}

// ExitCode maps an error to a process exit code.
// nil is 0, a StepFailure with a code in 1..255 mirrors that code, anything else is 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var sf *StepFailure
	if errors.As(err, &sf) && sf.ExitCode > 0 && sf.ExitCode < 256 {
		return sf.ExitCode
	}
	return 1
}
