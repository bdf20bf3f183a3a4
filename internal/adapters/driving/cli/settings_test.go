package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
)

func TestSettingsCmd_ShowsSections(t *testing.T) {
	svc := newMockSettingsService()
	svc.settings.Engine.ExtraArgs = []string{"--transfers", "8"}
	svc.settings.Engine.MinVersion = "1.60.0"
	defer withServices(Services{Settings: svc, ManifestPath: "/home/u/.cloudmirror/manifest.toml"})()

	for _, args := range [][]string{{"settings"}, {"settings", "show"}} {
		out, err := executeCommand(args...)

		require.NoError(t, err)
		assert.Contains(t, out, "[Engine]")
		assert.Contains(t, out, "Address: localhost:5572")
		assert.Contains(t, out, "Extra args: --transfers 8")
		assert.Contains(t, out, "Minimum version: 1.60.0")
		assert.Contains(t, out, "[Jobs]")
		assert.Contains(t, out, "Backend: file")
		assert.Contains(t, out, "Path: (default)")
		assert.Contains(t, out, "Resolved: /home/u/.cloudmirror/manifest.toml")
	}
}

func TestSettingsCmd_ShowError(t *testing.T) {
	svc := newMockSettingsService()
	svc.getErr = errors.New("bad config")
	defer withServices(Services{Settings: svc})()

	_, err := executeCommand("settings")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad config")
}

func TestSettingsCmd_GetAndSet(t *testing.T) {
	svc := newMockSettingsService()
	defer withServices(Services{Settings: svc})()

	out, err := executeCommand("settings", "set", "engine.addr", "127.0.0.1:6000")
	require.NoError(t, err)
	assert.Contains(t, out, "Set engine.addr = 127.0.0.1:6000")

	out, err = executeCommand("settings", "get", "engine.addr")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:6000", lines(out)[0])
}

func TestSettingsCmd_GetUnknownKey(t *testing.T) {
	defer withServices(Services{Settings: newMockSettingsService()})()

	_, err := executeCommand("settings", "get", "nope")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_SetError(t *testing.T) {
	svc := newMockSettingsService()
	svc.setErr = domain.ErrInvalidInput
	defer withServices(Services{Settings: svc})()

	_, err := executeCommand("settings", "set", "cache.backend", "redis")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsCmd_Keys(t *testing.T) {
	defer withServices(Services{Settings: newMockSettingsService()})()

	out, err := executeCommand("settings", "keys")

	require.NoError(t, err)
	assert.Equal(t, []string{"cache.backend", "engine.addr"}, lines(out))
}

func TestSettingsCmd_ServiceNotConfigured(t *testing.T) {
	defer withServices(Services{})()

	for _, args := range [][]string{{"settings"}, {"settings", "get", "x"}, {"settings", "set", "x", "y"}, {"settings", "keys"}} {
		_, err := executeCommand(args...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "settings service not configured")
	}
}
