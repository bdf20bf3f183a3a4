package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the rclone engine, job polling, cache backend and
manifest location. Keys are dotted, e.g. engine.addr or jobs.timeout_minutes.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a single setting",
	Long: `Sets a dotted key and saves the configuration file.
engine.args takes a whitespace-separated list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List recognised setting keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Engine]")
	cmd.Printf("  Binary: %s\n", settings.Engine.Binary)
	cmd.Printf("  Address: %s\n", settings.Engine.Addr)
	if len(settings.Engine.ExtraArgs) > 0 {
		cmd.Printf("  Extra args: %s\n", strings.Join(settings.Engine.ExtraArgs, " "))
	}
	if settings.Engine.MinVersion != "" {
		cmd.Printf("  Minimum version: %s\n", settings.Engine.MinVersion)
	}
	cmd.Printf("  Start timeout: %s\n", settings.Engine.StartTimeout)
	cmd.Println()

	cmd.Println("[Jobs]")
	cmd.Printf("  Poll interval: %s\n", settings.Jobs.PollInterval)
	cmd.Printf("  Timeout: %s\n", settings.Jobs.Timeout)
	cmd.Printf("  Max poll errors: %d\n", settings.Jobs.MaxPollErrors)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.CacheBackend)
	cmd.Println()

	cmd.Println("[Manifest]")
	if settings.ManifestPath != "" {
		cmd.Printf("  Path: %s\n", settings.ManifestPath)
	} else {
		cmd.Printf("  Path: (default)\n")
	}
	if manifestPath != "" {
		cmd.Printf("  Resolved: %s\n", manifestPath)
	}

	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	value, err := settingsService.GetValue(args[0])
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", args[0], err)
	}
	cmd.Println(value)
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.SetValue(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}
