// Package report renders pipeline runs as markdown or HTML summaries.
package report

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/harrison/scone-ci/internal/history"
	"github.com/harrison/scone-ci/internal/models"
)

// FromResult converts a finished run into the record shape used for rendering.
func FromResult(run *models.RunResult) *history.RunRecord {
	rec := &history.RunRecord{
		ID:         run.RunID,
		Workspace:  run.Workspace,
		StartedAt:  run.Started,
		FinishedAt: run.Finished,
		Status:     run.Status(),
		ExitCode:   run.ExitCode(),
	}
	if f := run.FailedStep(); f != nil {
		rec.FailedStep = f.Step.Name
	}
	for _, s := range run.Steps {
		st := history.StepRecord{
			Index:      s.Index,
			Name:       s.Step.Name,
			Executable: s.Step.Executable,
			State:      s.State,
			ExitCode:   s.ExitCode,
			Duration:   s.Duration,
		}
		if s.Err != nil {
			st.Error = s.Err.Error()
		}
		rec.Steps = append(rec.Steps, st)
	}
	return rec
}

var stateIcons = map[models.StepState]string{
	models.StateSucceeded: "✅",
	models.StateFailed:    "❌",
	models.StateSkipped:   "⏭️",
	models.StatePending:   "⏸️",
	models.StateRunning:   "▶️",
}

// Markdown renders a run as a heading, a status line and a step table.
func Markdown(rec *history.RunRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "### SCONE release pipeline: %s\n\n", strings.ToUpper(rec.Status))
	fmt.Fprintf(&b, "- Run: `%s`\n", rec.ID)
	fmt.Fprintf(&b, "- Workspace: `%s`\n", rec.Workspace)
	if !rec.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- Started: %s\n", rec.StartedAt.UTC().Format(time.RFC3339))
	}
	if !rec.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "- Duration: %s\n", rec.Duration().Round(time.Millisecond))
	}
	if rec.FailedStep != "" {
		fmt.Fprintf(&b, "- Failed step: `%s` (exit code %d)\n", rec.FailedStep, rec.ExitCode)
	}

	b.WriteString("\n| # | Step | Executable | State | Exit code | Duration |\n")
	b.WriteString("|---|------|------------|-------|-----------|----------|\n")
	for _, s := range rec.Steps {
		fmt.Fprintf(&b, "| %d | %s | `%s` | %s %s | %d | %s |\n",
			s.Index+1, escapeCell(s.Name), escapeCell(s.Executable), stateIcons[s.State], s.State, s.ExitCode,
			s.Duration.Round(time.Millisecond))
	}

	var errs []string
	for _, s := range rec.Steps {
		if s.Error != "" {
			errs = append(errs, fmt.Sprintf("- `%s`: %s", s.Name, escapeCell(s.Error)))
		}
	}
	if len(errs) > 0 {
		b.WriteString("\n**Errors**\n\n")
		b.WriteString(strings.Join(errs, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// escapeCell keeps free text on one line and stops a "|" from splitting a
// table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// HTML converts markdown to an HTML fragment with GFM table support.
func HTML(markdown string) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// AppendSummary appends markdown to the CI job summary file at path.
// An empty path is a no-op.
func AppendSummary(path, markdown string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open summary file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(markdown + "\n"); err != nil {
		return fmt.Errorf("write summary file: %w", err)
	}
	return nil
}
