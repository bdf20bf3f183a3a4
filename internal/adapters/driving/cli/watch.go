package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

var (
	watchInterval      time.Duration
	watchDebounce      time.Duration
	watchEngineRunning bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [item...]",
	Short: "Keep upload items in sync until interrupted",
	Long: `Runs a sync immediately, then again whenever a source path changes
(after a quiet period) and on a fixed interval. Runs never overlap.
Press Ctrl-C to stop; an in-progress run finishes its submitted jobs first.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Hour, "periodic sync interval (0 disables)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 5*time.Second, "quiet period after a change")
	watchCmd.Flags().BoolVar(&watchEngineRunning, "engine-running", false,
		"use an already running rclone daemon instead of starting one")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchService == nil {
		return errors.New("watch service not configured")
	}
	if watchInterval < 0 || watchDebounce < 0 {
		return errors.New("--interval and --debounce must not be negative")
	}

	out := cmd.OutOrStdout()
	st := stylesFor(out)

	cmd.Printf("Watching for changes (interval %s, debounce %s). Press Ctrl-C to stop.\n",
		watchInterval, watchDebounce)

	err := watchService.Watch(cmd.Context(), driving.WatchOptions{
		Interval: watchInterval,
		Debounce: watchDebounce,
		Run: driving.RunOptions{
			Items:         args,
			EngineRunning: watchEngineRunning,
		},
		OnRun: func(summary *domain.RunSummary, err error) {
			if err != nil {
				fmt.Fprintln(out, st.Error.Render("run failed: "+err.Error()))
				return
			}
			if summary != nil {
				renderSummary(out, st, summary)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Println("Stopped watching.")
	return nil
}
