package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show when each item was last synced",
	Long: `Lists every upload item with its last successful sync time and whether
the next run would upload it.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	statuses, err := syncOrchestrator.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if len(statuses) == 0 {
		cmd.Println("No upload items configured.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	rows := make([][]cell, 0, len(statuses))
	for _, s := range statuses {
		needs := plainCell(yesNo(s.NeedsSync))
		if s.Err != nil {
			needs = styledCell("error: "+truncate(s.Err.Error(), 60), st.Error)
		} else if s.NeedsSync {
			needs = styledCell(needs.text, st.Warning)
		}
		rows = append(rows, []cell{
			plainCell(s.Item.Label()),
			plainCell(s.Item.SourcePath),
			plainCell(formatTime(lastSynced(s))),
			needs,
		})
	}
	renderTable(cmd.OutOrStdout(), st, []string{"ITEM", "SOURCE", "LAST SYNCED", "NEEDS SYNC"}, rows)
	return nil
}

func lastSynced(s driving.ItemStatus) time.Time {
	if s.Entry == nil {
		return time.Time{}
	}
	return s.Entry.LastSyncedAt
}
