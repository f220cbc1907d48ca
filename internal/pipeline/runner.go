package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/harrison/scone-ci/internal/executor"
	"github.com/harrison/scone-ci/internal/models"
)

// Logger receives run progress. Implementations must tolerate being called
// from a single goroutine in strict step order.
type Logger interface {
	LogRunStart(runID, workspace string, steps []models.Step)
	LogStepStart(index int, step models.Step)
	LogStepFinish(result models.StepResult)
	LogRunFinish(result models.RunResult)
}

type nopLogger struct{}

func (nopLogger) LogRunStart(string, string, []models.Step) {}
func (nopLogger) LogStepStart(int, models.Step)            {}
func (nopLogger) LogStepFinish(models.StepResult)          {}
func (nopLogger) LogRunFinish(models.RunResult)            {}

// Runner executes a fixed list of steps inside a workspace.
type Runner struct {
	workspace string
	steps     []models.Step
	runner    executor.CommandRunner
	out       io.Writer
	logger    Logger
	timeout   time.Duration
	dryRun    bool
	runID     string
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput sets the writer progress labels are printed to (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger attaches a progress logger.
func WithLogger(l Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout bounds each step. Zero means no timeout: a hung tool hangs the run.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithDryRun prints labels and resolved executables without invoking anything.
func WithDryRun(dry bool) Option {
	return func(r *Runner) {
		r.dryRun = dry
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// NewRunner creates a Runner for the given workspace and steps.
func NewRunner(workspace string, steps []models.Step, runner executor.CommandRunner, opts ...Option) *Runner {
	r := &Runner{
		workspace: workspace,
		steps:     steps,
		runner:    runner,
		out:       os.Stdout,
		logger:    nopLogger{},
		runID:     uuid.NewString(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunID returns the identifier of the run this Runner performs.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes the steps in order and stops at the first failure.
// The returned result is non-nil whenever the steps list is valid, including
// when a step fails; in that case the error is a *models.StepFailure.
func (r *Runner) Run(ctx context.Context) (*models.RunResult, error) {
	if len(r.steps) == 0 {
		return nil, errors.New("pipeline has no steps")
	}
	if r.runner == nil && !r.dryRun {
		return nil, errors.New("pipeline has no command runner")
	}

	result := &models.RunResult{
		RunID:     r.runID,
		Workspace: r.workspace,
		DryRun:    r.dryRun,
		Steps:     make([]models.StepResult, len(r.steps)),
		Started:   r.now(),
	}
	for i, s := range r.steps {
		result.Steps[i] = models.StepResult{Index: i, Step: s, State: models.StatePending}
	}

	r.logger.LogRunStart(r.runID, r.workspace, r.steps)

	var runErr error
	for i := range result.Steps {
		sr := &result.Steps[i]
		if runErr != nil {
			sr.State = models.StateSkipped
			continue
		}
		runErr = r.runStep(ctx, sr)
	}

	result.Finished = r.now()
	r.logger.LogRunFinish(*result)
	return result, runErr
}

// runStep announces and runs one step, recording its outcome in sr.
func (r *Runner) runStep(ctx context.Context, sr *models.StepResult) error {
	if _, err := fmt.Fprintln(r.out, sr.Step.Label); err != nil {
		return r.fail(sr, executor.ExitGeneric, fmt.Errorf("write label: %w", err))
	}

	path := sr.Step.Resolve(r.workspace)
	if r.dryRun {
		fmt.Fprintf(r.out, "+ %s\n", path)
		sr.State = models.StateSkipped
		return nil
	}

	if err := ctx.Err(); err != nil {
		return r.fail(sr, executor.ExitGeneric, err)
	}

	sr.State = models.StateRunning
	r.logger.LogStepStart(sr.Index, sr.Step)

	stepCtx, cancel := r.stepContext(ctx)
	start := time.Now()
	res := r.runner.Run(stepCtx, executor.Command{Path: path, Dir: r.workspace})
	cancel()
	sr.Duration = time.Since(start)

	if !res.OK() {
		code := res.Code
		if code == 0 {
			code = executor.ExitGeneric
		}
		return r.fail(sr, code, res.Err)
	}

	sr.State = models.StateSucceeded
	r.logger.LogStepFinish(*sr)
	return nil
}

func (r *Runner) fail(sr *models.StepResult, code int, err error) error {
	sr.State = models.StateFailed
	sr.ExitCode = code
	sr.Err = err
	r.logger.LogStepFinish(*sr)
	return models.NewStepFailure(sr.Index, sr.Step, code, err)
}

func (r *Runner) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}
