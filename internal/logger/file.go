package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/scone-ci/internal/models"
)

// FileLogger logs run events to timestamped files in the log directory and
// maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir with default level "info".
func NewFileLogger(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithLevel(logDir, "info")
}

// NewFileLoggerWithLevel creates a FileLogger with a custom log level.
// It creates the log directory if it doesn't exist, opens a timestamped
// run log file, and creates/updates the latest.log symlink.
func NewFileLoggerWithLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	ts := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", ts))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== scone-ci Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// Path returns the run log file path.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !enabled(fl.logLevel, level) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogRunStart records the run ID, workspace and step plan.
func (fl *FileLogger) LogRunStart(runID, workspace string, steps []models.Step) {
	if !enabled(fl.logLevel, "info") {
		return
	}
	var b strings.Builder
	ts := timestamp()
	fmt.Fprintf(&b, "[%s] Run ID:    %s\n", ts, runID)
	fmt.Fprintf(&b, "[%s] Workspace: %s\n", ts, workspace)
	for i, s := range steps {
		fmt.Fprintf(&b, "[%s]   %d. %-10s %s\n", ts, i+1, s.Name, s.Executable)
	}
	fl.writeRunLog(b.String())
}

// LogStepStart records the start of a step.
func (fl *FileLogger) LogStepStart(index int, step models.Step) {
	fl.LogInfo(fmt.Sprintf("%s (step %d: %s)", step.Label, index+1, step.Executable))
}

// LogStepFinish records the outcome of a step.
func (fl *FileLogger) LogStepFinish(result models.StepResult) {
	msg := fmt.Sprintf("step %d (%s) %s: exit %d, %s",
		result.Index+1, result.Step.Name, result.State, result.ExitCode, formatDuration(result.Duration))
	if result.Err != nil {
		msg += ", error: " + result.Err.Error()
	}
	if result.State == models.StateFailed {
		fl.LogError(msg)
		return
	}
	fl.LogInfo(msg)
}

// LogRunFinish records the run summary.
func (fl *FileLogger) LogRunFinish(result models.RunResult) {
	if !enabled(fl.logLevel, "info") {
		return
	}
	ts := timestamp()
	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] === RUN SUMMARY ===\n", ts)
	fmt.Fprintf(&b, "[%s] Status:       %s\n", ts, strings.ToUpper(result.Status()))
	for _, s := range result.Steps {
		fmt.Fprintf(&b, "[%s]   %-10s %-9s exit %d\n", ts, s.Step.Name, s.State, s.ExitCode)
	}
	fmt.Fprintf(&b, "[%s] Total time:   %s\n", ts, formatDuration(result.Duration()))
	fmt.Fprintf(&b, "[%s] Completed at: %s\n", ts, time.Now().Format(time.RFC3339))
	fl.writeRunLog(b.String())
}

// Close flushes and closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
