package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cloudmirror-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
)

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppSettings(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("engine.addr", "127.0.0.1:5574")
	_ = store.Set("engine.args", []string{"--fast-list"})
	_ = store.Set("jobs.poll_interval_ms", 500)
	_ = store.Set("jobs.timeout_minutes", 90)
	_ = store.Set("cache.backend", "sqlite")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:5574", settings.Engine.Addr)
	assert.Equal(t, []string{"--fast-list"}, settings.Engine.ExtraArgs)
	assert.Equal(t, 500*time.Millisecond, settings.Jobs.PollInterval)
	assert.Equal(t, 90*time.Minute, settings.Jobs.Timeout)
	assert.Equal(t, domain.CacheBackendSQLite, settings.CacheBackend)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("cache.backend", "s3")
	_ = store.Set("jobs.max_poll_errors", -4)

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.CacheBackend, settings.CacheBackend)
	assert.Equal(t, defaults.Jobs.MaxPollErrors, settings.Jobs.MaxPollErrors)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	settings := domain.DefaultAppSettings()
	settings.Engine.MinVersion = "1.60"
	settings.Jobs.Timeout = 2 * time.Hour
	settings.CacheBackend = domain.CacheBackendSQLite
	settings.ManifestPath = "/etc/cloudmirror/manifest.toml"
	require.NoError(t, service.Save(&settings))

	got, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "1.60", got.Engine.MinVersion)
	assert.Equal(t, 2*time.Hour, got.Jobs.Timeout)
	assert.Equal(t, domain.CacheBackendSQLite, got.CacheBackend)
	assert.Equal(t, "/etc/cloudmirror/manifest.toml", got.ManifestPath)
}

func TestSettingsService_Save_InvalidBackend(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.CacheBackend = "tape"

	err := NewSettingsService(memory.NewConfigStore()).Save(&settings)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"engine.binary", "/usr/local/bin/rclone", "/usr/local/bin/rclone"},
		{"engine.args", "--fast-list  --transfers 8", "--fast-list --transfers 8"},
		{"engine.start_timeout_seconds", "45", "45"},
		{"jobs.poll_interval_ms", "250", "250"},
		{"jobs.max_poll_errors", "10", "10"},
		{"cache.backend", "sqlite", "sqlite"},
		{"manifest.path", "~/m.yaml", "~/m.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore())

			require.NoError(t, service.SetValue(tt.key, tt.value))

			got, err := service.GetValue(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_SetValue_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"engine.addr", ""},
		{"jobs.timeout_minutes", "soon"},
		{"jobs.poll_interval_ms", "0"},
		{"cache.backend", "s3"},
		{"search.mode", "hybrid"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := NewSettingsService(memory.NewConfigStore()).SetValue(tt.key, tt.value)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestSettingsService_GetValue_Unknown(t *testing.T) {
	_, err := NewSettingsService(memory.NewConfigStore()).GetValue("nope")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Keys(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	keys := service.Keys()

	assert.Contains(t, keys, "engine.addr")
	assert.Contains(t, keys, "cache.backend")
	keys[0] = "mutated"
	assert.NotEqual(t, "mutated", service.Keys()[0])
}
