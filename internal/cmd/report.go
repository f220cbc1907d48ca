package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/scone-ci/internal/history"
	"github.com/harrison/scone-ci/internal/report"
)

// NewReportCommand creates the 'scone-ci report' command
func NewReportCommand() *cobra.Command {
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Render a pipeline run as markdown or HTML",
		Long: `Render the latest recorded run, or the run with the given ID, as a
markdown summary (the same text appended to the CI job summary).
A unique prefix of a run ID is accepted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReport(cmd, runID, asHTML)
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")

	return cmd
}

func runReport(cmd *cobra.Command, runID string, asHTML bool) error {
	s, err := loadSettings(getenv)
	if err != nil {
		return err
	}

	store, err := openExistingStore(s.historyPath())
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("no runs recorded in %s", s.workspace)
	}
	defer store.Close()

	ctx := context.Background()
	var rec *history.RunRecord
	if runID == "" {
		rec, err = store.LatestRun(ctx)
	} else {
		rec, err = store.GetRun(ctx, runID)
	}
	if errors.Is(err, history.ErrNotFound) && runID == "" {
		return fmt.Errorf("no runs recorded in %s", s.workspace)
	}
	if err != nil {
		return err
	}

	out := report.Markdown(rec)
	if asHTML {
		if out, err = report.HTML(out); err != nil {
			return err
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}
