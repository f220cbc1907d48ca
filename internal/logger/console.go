// Package logger provides logging implementations for scone-ci runs.
//
// The logger package records pipeline progress at the run and step levels.
// Implementations are safe for concurrent use and support console and file
// destinations; MultiLogger fans a single event stream out to several of them.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/scone-ci/internal/models"
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	progress    *ProgressBar
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else falls back to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// NO_COLOR disables colors even on a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !enabled(cl.logLevel, level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, colorize(level), message)
		return
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

// colorize wraps a level name in its ANSI color.
func colorize(level string) string {
	var c *color.Color
	switch level {
	case "TRACE":
		c = color.New(color.FgHiBlack)
	case "DEBUG":
		c = color.New(color.FgCyan)
	case "INFO":
		c = color.New(color.FgBlue)
	case "WARN":
		c = color.New(color.FgYellow)
	case "ERROR":
		c = color.New(color.FgRed)
	default:
		return level
	}
	// color.NoColor tracks stdout only; the writer was already checked
	c.EnableColor()
	return c.Sprint(level)
}

// LogRunStart logs the workspace and the step order at INFO level.
func (cl *ConsoleLogger) LogRunStart(runID, workspace string, steps []models.Step) {
	cl.progress = NewProgressBar(len(steps), 20, cl.colorOutput)
	cl.LogInfo(fmt.Sprintf("Run %s in %s (%d steps)", shortID(runID), workspace, len(steps)))
	for i, s := range steps {
		cl.LogDebug(fmt.Sprintf("  %d. %s -> %s", i+1, s.Name, s.Executable))
	}
}

// LogStepStart logs a step invocation at DEBUG level; the label on stdout
// already announces it.
func (cl *ConsoleLogger) LogStepStart(index int, step models.Step) {
	cl.LogDebug(fmt.Sprintf("Step %d (%s): starting %s", index+1, step.Name, step.Executable))
}

// LogStepFinish logs a finished step. Failures are logged at ERROR level.
func (cl *ConsoleLogger) LogStepFinish(result models.StepResult) {
	switch result.State {
	case models.StateSucceeded:
		cl.LogInfo(fmt.Sprintf("Step %d (%s) succeeded in %s", result.Index+1, result.Step.Name, formatDuration(result.Duration)))
		if cl.progress != nil {
			cl.progress.Increment()
			cl.LogInfo("Progress " + cl.progress.Render())
		}
	case models.StateFailed:
		msg := fmt.Sprintf("Step %d (%s) failed with exit code %d", result.Index+1, result.Step.Name, result.ExitCode)
		if result.Err != nil {
			msg += ": " + result.Err.Error()
		}
		cl.LogError(msg)
	}
}

// LogRunFinish logs the run summary.
func (cl *ConsoleLogger) LogRunFinish(result models.RunResult) {
	switch result.Status() {
	case models.RunSucceeded:
		cl.LogInfo(fmt.Sprintf("Run %s succeeded in %s", shortID(result.RunID), formatDuration(result.Duration())))
	case models.RunDryRun:
		cl.LogInfo(fmt.Sprintf("Dry run %s complete, no steps invoked", shortID(result.RunID)))
	default:
		failed := result.FailedStep()
		name := "unknown"
		if failed != nil {
			name = failed.Step.Name
		}
		cl.LogError(fmt.Sprintf("Run %s failed at step %s after %s", shortID(result.RunID), name, formatDuration(result.Duration())))
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}

// shortID trims a UUID to its first block for console output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatDuration renders d as "850ms", "12.3s" or "4m05s".
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d / time.Minute)
		s := int((d % time.Minute) / time.Second)
		return fmt.Sprintf("%dm%02ds", m, s)
	}
}
