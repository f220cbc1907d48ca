package models

import (
	"path/filepath"
	"time"
)

// Step names in pipeline order
const (
	StepBuild     = "build"
	StepRearrange = "rearrange"
	StepPackage   = "package"
)

// StepState tracks a step through pending -> running -> succeeded|failed|skipped.
type StepState string

// Step state constants
const (
	StatePending   StepState = "pending"
	StateRunning   StepState = "running"
	StateSucceeded StepState = "succeeded"
	StateFailed    StepState = "failed"
	StateSkipped   StepState = "skipped"
)

// IsTerminal reports whether no further transition is possible from s.
func (s StepState) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateSkipped
}

// Step is one external tool invocation
type Step struct {
	Name       string // Short identifier (build, rearrange, package)
	Label      string // Progress label printed before the step runs
	Executable string // Tool path, relative to the workspace unless absolute
}

// Resolve returns the absolute path of the step's executable inside workspace.
// $PATH is never consulted.
func (s Step) Resolve(workspace string) string {
	if filepath.IsAbs(s.Executable) {
		return filepath.Clean(s.Executable)
	}
	return filepath.Join(workspace, s.Executable)
}

// StepResult records the outcome of a single step
type StepResult struct {
	Index    int           // Zero-based position in the pipeline
	Step     Step          // The step definition
	State    StepState     // Final state
	ExitCode int           // Process exit code (0 unless failed)
	Duration time.Duration // Wall time spent in the tool
	Err      error         // Failure cause, if any
}
