package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

var (
	syncDryRun        bool
	syncEngineRunning bool
)

var syncCmd = &cobra.Command{
	Use:   "sync [item...]",
	Short: "Mirror upload items to their remotes",
	Long: `Runs one sync over the upload manifest.
If item names are given, only those items are synced.
Otherwise, every item in the manifest is synced in order.

Items unchanged since their last successful sync are skipped. A failing
item does not stop the others; the command exits non-zero if any failed.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "report which items would sync without transferring")
	syncCmd.Flags().BoolVar(&syncEngineRunning, "engine-running", false,
		"use an already running rclone daemon instead of starting one")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	opts := driving.RunOptions{
		Items:         args,
		DryRun:        syncDryRun,
		EngineRunning: syncEngineRunning,
	}

	if len(args) > 0 {
		cmd.Printf("Synchronising %d item(s)...\n", len(args))
	} else {
		cmd.Println("Synchronising all items...")
	}

	summary, err := syncOrchestrator.Run(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	renderSummary(cmd.OutOrStdout(), stylesFor(cmd.OutOrStdout()), summary)

	if summary.Cancelled {
		return errors.New("sync cancelled")
	}
	return summary.Err()
}
