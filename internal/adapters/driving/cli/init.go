package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// writeExampleManifest creates the example manifest; main installs it.
var writeExampleManifest func(path string) error

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example upload manifest",
	Long: `Creates a commented example manifest at the configured manifest path
(or --manifest). An existing manifest is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// SetManifestWriter installs the function used by init.
func SetManifestWriter(fn func(path string) error) {
	writeExampleManifest = fn
}

func runInit(cmd *cobra.Command, _ []string) error {
	if writeExampleManifest == nil || manifestPath == "" {
		return errors.New("manifest location not configured")
	}
	if err := writeExampleManifest(manifestPath); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	cmd.Printf("Wrote example manifest to %s\n", manifestPath)
	cmd.Println("Edit it to declare your upload items and remotes, then run 'cloudmirror sync --dry-run'.")
	return nil
}
