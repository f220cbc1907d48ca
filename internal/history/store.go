// Package history persists pipeline runs in a SQLite database so CI jobs
// can list and report on earlier runs in the same workspace.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/scone-ci/internal/models"
)

// ErrNotFound is returned when a run ID has no record.
var ErrNotFound = errors.New("run not found")

// StepRecord is a stored step outcome
type StepRecord struct {
	Index      int
	Name       string
	Executable string
	State      models.StepState
	ExitCode   int
	Duration   time.Duration
	Error      string
}

// RunRecord is a stored pipeline run
type RunRecord struct {
	ID         string
	Workspace  string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     string
	FailedStep string
	ExitCode   int
	Steps      []StepRecord
}

// Duration returns the wall time of the run.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates the database if needed, applies migrations and returns a Store.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores a run and all its step results in one transaction.
func (s *Store) RecordRun(ctx context.Context, run *models.RunResult) error {
	if run == nil {
		return errors.New("run result is nil")
	}
	if run.RunID == "" {
		return errors.New("run result has no run ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	failedStep := ""
	if f := run.FailedStep(); f != nil {
		failedStep = f.Step.Name
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, workspace, started_at, finished_at, status, failed_step, exit_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Workspace,
		formatTime(run.Started), formatTime(run.Finished),
		run.Status(), failedStep, run.ExitCode(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, step := range run.Steps {
		errText := ""
		if step.Err != nil {
			errText = step.Err.Error()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO step_results (run_id, idx, name, executable, state, exit_code, duration_ms, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, step.Index, step.Step.Name, step.Step.Executable,
			string(step.State), step.ExitCode, step.Duration.Milliseconds(), errText,
		)
		if err != nil {
			return fmt.Errorf("insert step %s: %w", step.Step.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, without step details.
// A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT id, workspace, started_at, finished_at, status, failed_step, exit_code
	          FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run with its steps. An ID prefix is accepted when it is
// unambiguous.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace, started_at, finished_at, status, failed_step, exit_code
		 FROM runs WHERE id = ? OR id LIKE ? ORDER BY (id = ?) DESC LIMIT 2`,
		id, id+"%", id)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var matches []*RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		matches = append(matches, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) > 1 && matches[0].ID != id:
		return nil, fmt.Errorf("run ID prefix %q is ambiguous", id)
	}

	rec := matches[0]
	steps, err := s.loadSteps(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	rec.Steps = steps
	return rec, nil
}

// LatestRun returns the most recent run with its steps.
func (s *Store) LatestRun(ctx context.Context) (*RunRecord, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNotFound
	}
	return s.GetRun(ctx, runs[0].ID)
}

func (s *Store) loadSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, name, executable, state, exit_code, duration_ms, error
		 FROM step_results WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var st StepRecord
		var state string
		var durMS int64
		if err := rows.Scan(&st.Index, &st.Name, &st.Executable, &state, &st.ExitCode, &durMS, &st.Error); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		st.State = models.StepState(state)
		st.Duration = time.Duration(durMS) * time.Millisecond
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (*RunRecord, error) {
	var rec RunRecord
	var started, finished string
	if err := row.Scan(&rec.ID, &rec.Workspace, &started, &finished, &rec.Status, &rec.FailedStep, &rec.ExitCode); err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	rec.StartedAt = parseTime(started)
	rec.FinishedAt = parseTime(finished)
	return &rec, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
