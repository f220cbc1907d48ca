package report

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/scone-ci/internal/history"
)

type lastRunStep struct {
	Name       string `yaml:"name"`
	Executable string `yaml:"executable"`
	State      string `yaml:"state"`
	ExitCode   int    `yaml:"exit_code"`
	DurationMS int64  `yaml:"duration_ms"`
	Error      string `yaml:"error,omitempty"`
}

type lastRun struct {
	RunID      string        `yaml:"run_id"`
	Status     string        `yaml:"status"`
	Workspace  string        `yaml:"workspace"`
	StartedAt  string        `yaml:"started_at"`
	FinishedAt string        `yaml:"finished_at"`
	FailedStep string        `yaml:"failed_step,omitempty"`
	ExitCode   int           `yaml:"exit_code"`
	Steps      []lastRunStep `yaml:"steps"`
}

// LastRunYAML renders the machine-readable state file written after every run.
func LastRunYAML(rec *history.RunRecord) ([]byte, error) {
	doc := lastRun{
		RunID:      rec.ID,
		Status:     rec.Status,
		Workspace:  rec.Workspace,
		StartedAt:  rec.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: rec.FinishedAt.UTC().Format(time.RFC3339),
		FailedStep: rec.FailedStep,
		ExitCode:   rec.ExitCode,
	}
	for _, s := range rec.Steps {
		doc.Steps = append(doc.Steps, lastRunStep{
			Name:       s.Name,
			Executable: s.Executable,
			State:      string(s.State),
			ExitCode:   s.ExitCode,
			DurationMS: s.Duration.Milliseconds(),
			Error:      s.Error,
		})
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal last run: %w", err)
	}
	return data, nil
}
