package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/scone-ci/internal/display"
	"github.com/harrison/scone-ci/internal/executor"
	"github.com/harrison/scone-ci/internal/filelock"
	"github.com/harrison/scone-ci/internal/history"
	"github.com/harrison/scone-ci/internal/logger"
	"github.com/harrison/scone-ci/internal/models"
	"github.com/harrison/scone-ci/internal/pipeline"
	"github.com/harrison/scone-ci/internal/report"
	"github.com/harrison/scone-ci/internal/workspace"
)

// getenv is swapped in tests.
var getenv = os.Getenv

// runPipeline is the root command's action: resolve and enter the workspace,
// then run the three release steps in order.
func runPipeline(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(getenv)
	if err != nil {
		return err
	}
	if err := workspace.Enter(s.workspace); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	console := logger.NewConsoleLogger(errOut, s.cfg.LogLevel)
	console.LogDebug(workspace.Describe(s.cfg.WorkspaceEnv, s.workspace))

	lockPath := workspace.Path(s.workspace, "run.lock")
	lock, err := filelock.AcquireRunLock(lockPath)
	switch {
	case models.IsConfigurationError(err):
		return err
	case err != nil:
		display.Warn(errOut, "Running without workspace lock", err, lockPath)
	default:
		defer func() { _ = lock.Unlock() }()
	}

	steps, err := pipeline.ApplyOverrides(pipeline.DefaultSteps(), s.cfg.StepOverrides())
	if err != nil {
		return models.NewConfigurationError("steps", s.configPath, "invalid step override", err)
	}

	runLog := logger.NewMultiLogger(console)
	fileLog, err := logger.NewFileLoggerWithLevel(s.logDir(), s.cfg.LogLevel)
	if err != nil {
		display.Warn(errOut, "Run log not written", err, s.logDir())
	} else {
		defer fileLog.Close()
		runLog.Add(fileLog)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(s.workspace, steps,
		executor.NewProcessRunner(out, errOut),
		pipeline.WithOutput(out),
		pipeline.WithLogger(runLog),
		pipeline.WithTimeout(s.cfg.StepTimeout),
		pipeline.WithDryRun(s.cfg.DryRun),
	)

	result, runErr := runner.Run(ctx)
	if result != nil {
		persistRun(errOut, s, result)
	}
	return runErr
}

// persistRun records a finished run in history, last-run.yaml and the CI job
// summary. Failures here are reported as warnings and never change the
// outcome of the run.
func persistRun(errOut io.Writer, s *settings, result *models.RunResult) {
	rec := report.FromResult(result)

	if s.cfg.History.Enabled && !result.DryRun {
		if err := recordHistory(s.historyPath(), result); err != nil {
			display.Warn(errOut, "Run history not recorded", err, s.historyPath())
		}
	}

	lastRun := workspace.Path(s.workspace, "last-run.yaml")
	data, err := report.LastRunYAML(rec)
	if err == nil {
		err = filelock.AtomicWrite(lastRun, data)
	}
	if err != nil {
		display.Warn(errOut, "Last run state not written", err, lastRun)
	}

	if summary := getenv(s.cfg.SummaryFileEnv); summary != "" {
		if err := report.AppendSummary(summary, report.Markdown(rec)); err != nil {
			display.Warn(errOut, "Job summary not written", err, summary)
		}
	}
}

func recordHistory(dbPath string, result *models.RunResult) error {
	store, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.RecordRun(context.Background(), result); err != nil {
		return fmt.Errorf("record run %s: %w", result.RunID, err)
	}
	return nil
}
