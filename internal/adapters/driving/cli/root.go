// Package cli provides the cobra command tree for cloudmirror.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// Options are the global flags handed to the service builder.
type Options struct {
	// ManifestPath overrides the configured manifest location.
	ManifestPath string
}

// Services are the driving ports the commands use. Nil ports make the
// commands that need them fail with a "not configured" error.
type Services struct {
	Settings driving.SettingsService
	Sync     driving.SyncOrchestrator
	History  driving.RunHistory
	Watch    driving.WatchService

	// ManifestPath is the resolved manifest location, used by init.
	ManifestPath string

	// Close releases stores opened by the builder. Optional.
	Close func() error
}

// Builder constructs the services once global flags are parsed.
type Builder func(opts Options) (*Services, error)

var (
	version = "dev"

	builder       Builder
	closeServices func() error

	settingsService  driving.SettingsService
	syncOrchestrator driving.SyncOrchestrator
	runHistory       driving.RunHistory
	watchService     driving.WatchService
	manifestPath     string

	verbose          bool
	manifestOverride string
)

var rootCmd = &cobra.Command{
	Use:   "cloudmirror",
	Short: "Mirror local files and directories to cloud remotes",
	Long: `cloudmirror keeps local files and directories mirrored to one or more
cloud storage remotes through an rclone remote-control daemon.

Upload items and remotes are declared in a manifest file. Each run mounts
the remotes an item needs, transfers the item, and records the sync so
unchanged items are skipped next time.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { teardown() },
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&manifestOverride, "manifest", "", "path to the upload manifest")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBuilder installs the function that wires services on first use.
func SetBuilder(b Builder) {
	builder = b
}

// setup applies global flags and builds services when a builder is installed.
func setup(cmd *cobra.Command, _ []string) error {
	logger.FromEnv()
	if verbose {
		logger.SetVerbose(true)
	}
	logger.SetOutput(cmd.ErrOrStderr())

	if builder == nil {
		return nil
	}
	svcs, err := builder(Options{ManifestPath: manifestOverride})
	if err != nil {
		return err
	}
	settingsService = svcs.Settings
	syncOrchestrator = svcs.Sync
	runHistory = svcs.History
	watchService = svcs.Watch
	manifestPath = svcs.ManifestPath
	closeServices = svcs.Close
	return nil
}

func teardown() {
	if closeServices == nil {
		return
	}
	if err := closeServices(); err != nil {
		logger.Warn("closing stores: %v", err)
	}
	closeServices = nil
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	// PersistentPostRun is skipped when RunE fails.
	teardown()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
	}
	return err
}
