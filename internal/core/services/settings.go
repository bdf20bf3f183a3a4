package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEngineBinary       = "engine.binary"
	keyEngineAddr         = "engine.addr"
	keyEngineArgs         = "engine.args"
	keyEngineMinVersion   = "engine.min_version"
	keyEngineStartTimeout = "engine.start_timeout_seconds"
	keyJobsPollInterval   = "jobs.poll_interval_ms"
	keyJobsTimeout        = "jobs.timeout_minutes"
	keyJobsMaxPollErrors  = "jobs.max_poll_errors"
	keyCacheBackend       = "cache.backend"
	keyManifestPath       = "manifest.path"
)

var settingKeys = []string{
	keyEngineBinary,
	keyEngineAddr,
	keyEngineArgs,
	keyEngineMinVersion,
	keyEngineStartTimeout,
	keyJobsPollInterval,
	keyJobsTimeout,
	keyJobsMaxPollErrors,
	keyCacheBackend,
	keyManifestPath,
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Engine: domain.EngineSettings{
			Binary:       s.getString(keyEngineBinary, defaults.Engine.Binary),
			Addr:         s.getString(keyEngineAddr, defaults.Engine.Addr),
			ExtraArgs:    s.configStore.GetStringSlice(keyEngineArgs),
			MinVersion:   s.configStore.GetString(keyEngineMinVersion), // No default - empty disables the check
			StartTimeout: s.getDuration(keyEngineStartTimeout, time.Second, defaults.Engine.StartTimeout),
		},
		Jobs: domain.JobSettings{
			PollInterval:  s.getDuration(keyJobsPollInterval, time.Millisecond, defaults.Jobs.PollInterval),
			Timeout:       s.getDuration(keyJobsTimeout, time.Minute, defaults.Jobs.Timeout),
			MaxPollErrors: s.getInt(keyJobsMaxPollErrors, defaults.Jobs.MaxPollErrors),
		},
		CacheBackend: s.getCacheBackend(defaults.CacheBackend),
		ManifestPath: s.configStore.GetString(keyManifestPath),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if !settings.CacheBackend.IsValid() {
		return fmt.Errorf("%w: cache backend %q", domain.ErrInvalidInput, settings.CacheBackend)
	}

	values := []struct {
		key   string
		value any
	}{
		{keyEngineBinary, settings.Engine.Binary},
		{keyEngineAddr, settings.Engine.Addr},
		{keyEngineArgs, settings.Engine.ExtraArgs},
		{keyEngineMinVersion, settings.Engine.MinVersion},
		{keyEngineStartTimeout, int(settings.Engine.StartTimeout / time.Second)},
		{keyJobsPollInterval, int(settings.Jobs.PollInterval / time.Millisecond)},
		{keyJobsTimeout, int(settings.Jobs.Timeout / time.Minute)},
		{keyJobsMaxPollErrors, settings.Jobs.MaxPollErrors},
		{keyCacheBackend, settings.CacheBackend.String()},
		{keyManifestPath, settings.ManifestPath},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// SetValue parses value for key and persists it.
func (s *SettingsService) SetValue(key, value string) error {
	value = strings.TrimSpace(value)

	var parsed any
	switch key {
	case keyEngineBinary, keyEngineAddr:
		if value == "" {
			return fmt.Errorf("%w: %s must not be empty", domain.ErrInvalidInput, key)
		}
		parsed = value
	case keyEngineMinVersion, keyManifestPath:
		parsed = value
	case keyEngineArgs:
		parsed = strings.Fields(value)
	case keyEngineStartTimeout, keyJobsPollInterval, keyJobsTimeout, keyJobsMaxPollErrors:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s must be a positive integer, got %q", domain.ErrInvalidInput, key, value)
		}
		parsed = n
	case keyCacheBackend:
		backend := domain.CacheBackend(value)
		if !backend.IsValid() {
			return fmt.Errorf("%w: cache backend must be %s or %s, got %q",
				domain.ErrInvalidInput, domain.CacheBackendFile, domain.CacheBackendSQLite, value)
		}
		parsed = backend.String()
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetValue returns the effective value of key, defaults included.
func (s *SettingsService) GetValue(key string) (string, error) {
	settings, err := s.Get()
	if err != nil {
		return "", err
	}

	switch key {
	case keyEngineBinary:
		return settings.Engine.Binary, nil
	case keyEngineAddr:
		return settings.Engine.Addr, nil
	case keyEngineArgs:
		return strings.Join(settings.Engine.ExtraArgs, " "), nil
	case keyEngineMinVersion:
		return settings.Engine.MinVersion, nil
	case keyEngineStartTimeout:
		return strconv.Itoa(int(settings.Engine.StartTimeout / time.Second)), nil
	case keyJobsPollInterval:
		return strconv.Itoa(int(settings.Jobs.PollInterval / time.Millisecond)), nil
	case keyJobsTimeout:
		return strconv.Itoa(int(settings.Jobs.Timeout / time.Minute)), nil
	case keyJobsMaxPollErrors:
		return strconv.Itoa(settings.Jobs.MaxPollErrors), nil
	case keyCacheBackend:
		return settings.CacheBackend.String(), nil
	case keyManifestPath:
		return settings.ManifestPath, nil
	default:
		return "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// Keys lists the recognised setting keys.
func (s *SettingsService) Keys() []string {
	return append([]string(nil), settingKeys...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, unit, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return time.Duration(val) * unit
}

func (s *SettingsService) getCacheBackend(defaultVal domain.CacheBackend) domain.CacheBackend {
	val := s.configStore.GetString(keyCacheBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.CacheBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
