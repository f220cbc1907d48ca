package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/scone-ci/internal/history"
	"github.com/harrison/scone-ci/internal/models"
)

// NewHistoryCommand creates the 'scone-ci history' command
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		Long: `List pipeline runs recorded in the workspace history database,
newest first, with their status, failing step and duration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	output := cmd.OutOrStdout()

	s, err := loadSettings(getenv)
	if err != nil {
		return err
	}

	store, err := openExistingStore(s.historyPath())
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintf(output, "No runs recorded in %s\n", s.workspace)
		return nil
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(output, "No runs recorded in %s\n", s.workspace)
		return nil
	}

	printRuns(output, runs)
	return nil
}

// openExistingStore opens the history database, or returns nil when no run
// has been recorded yet so read-only commands never create one.
func openExistingStore(dbPath string) (*history.Store, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil
	}
	store, err := history.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func printRuns(w io.Writer, runs []history.RunRecord) {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "%-8s  %-19s  %-10s  %-9s  %s\n", "RUN", "STARTED", "STATUS", "DURATION", "FAILED STEP")
	for _, r := range runs {
		fmt.Fprintf(w, "%-8s  %-19s  ", shortRunID(r.ID), r.StartedAt.Local().Format("2006-01-02 15:04:05"))
		statusColor(r.Status).Fprintf(w, "%-10s", r.Status)
		fmt.Fprintf(w, "  %-9s  ", r.Duration().Round(time.Second))
		if r.FailedStep != "" {
			fmt.Fprintf(w, "%s (exit %d)\n", r.FailedStep, r.ExitCode)
		} else {
			gray.Fprintln(w, "-")
		}
	}
}

func statusColor(status string) *color.Color {
	switch status {
	case models.RunSucceeded:
		return color.New(color.FgGreen)
	case models.RunFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
