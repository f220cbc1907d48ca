package models

import "time"

// Run status values persisted in history
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
	RunDryRun    = "dry-run"
)

// RunResult represents the aggregate result of one pipeline run
type RunResult struct {
	RunID     string
	Workspace string
	DryRun    bool
	Steps     []StepResult
	Started   time.Time
	Finished  time.Time
}

// Duration returns total wall time of the run.
func (r *RunResult) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// Succeeded returns true only when every step succeeded.
func (r *RunResult) Succeeded() bool {
	if len(r.Steps) == 0 {
		return false
	}
	for _, s := range r.Steps {
		if s.State != StateSucceeded {
			return false
		}
	}
	return true
}

// FailedStep returns the first failed step, or nil.
func (r *RunResult) FailedStep() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].State == StateFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

// Status returns the run status string stored in history.
func (r *RunResult) Status() string {
	switch {
	case r.DryRun:
		return RunDryRun
	case r.Succeeded():
		return RunSucceeded
	default:
		return RunFailed
	}
}

// ExitCode returns the exit code of the first failed step, or 0.
func (r *RunResult) ExitCode() int {
	if f := r.FailedStep(); f != nil {
		return f.ExitCode
	}
	return 0
}
