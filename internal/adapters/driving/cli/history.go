package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryCmd,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	rootCmd.AddCommand(historyCmd)
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if runHistory == nil {
		return errors.New("history service not configured")
	}

	runs, err := runHistory.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No runs recorded yet.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]cell, 0, len(runs))
	for _, r := range runs {
		note := plainCell("")
		switch {
		case r.Cancelled:
			note = styledCell("cancelled", st.Warning)
		case r.DryRun:
			note = styledCell("dry run", st.Muted)
		case !r.Success():
			note = styledCell(truncate(r.Error, 50), st.Error)
		}
		duration := "-"
		if !r.EndedAt.IsZero() && !r.StartedAt.IsZero() {
			duration = r.EndedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		rows = append(rows, []cell{
			plainCell(formatTime(r.StartedAt)),
			plainCell(duration),
			plainCell(strconv.Itoa(r.Completed)),
			plainCell(strconv.Itoa(r.Skipped)),
			plainCell(strconv.Itoa(r.Failed)),
			note,
		})
	}
	renderTable(cmd.OutOrStdout(), st, []string{"STARTED", "DURATION", "SYNCED", "SKIPPED", "FAILED", "NOTE"}, rows)
	return nil
}
