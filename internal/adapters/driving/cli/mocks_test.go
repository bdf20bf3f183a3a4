package cli

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

// mockSyncOrchestrator implements driving.SyncOrchestrator for testing.
type mockSyncOrchestrator struct {
	summary  *domain.RunSummary
	runErr   error
	statuses []driving.ItemStatus
	stateErr error

	lastOpts driving.RunOptions
	runs     int
}

func (m *mockSyncOrchestrator) Run(_ context.Context, opts driving.RunOptions) (*domain.RunSummary, error) {
	m.runs++
	m.lastOpts = opts
	if m.runErr != nil {
		return nil, m.runErr
	}
	if m.summary == nil {
		return &domain.RunSummary{RunID: "run-1", DryRun: opts.DryRun}, nil
	}
	return m.summary, nil
}

func (m *mockSyncOrchestrator) Status(_ context.Context) ([]driving.ItemStatus, error) {
	return m.statuses, m.stateErr
}

// mockSettingsService implements driving.SettingsService over a flat map.
type mockSettingsService struct {
	settings domain.AppSettings
	values   map[string]string
	getErr   error
	setErr   error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultAppSettings(),
		values:   map[string]string{"engine.addr": "localhost:5572", "cache.backend": "file"},
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetValue(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) GetValue(key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", domain.ErrInvalidInput
	}
	return v, nil
}

func (m *mockSettingsService) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// mockRunHistory implements driving.RunHistory.
type mockRunHistory struct {
	runs      []domain.RunRecord
	err       error
	lastLimit int
}

func (m *mockRunHistory) Recent(_ context.Context, limit int) ([]domain.RunRecord, error) {
	m.lastLimit = limit
	return m.runs, m.err
}

// mockWatchService implements driving.WatchService by emitting canned runs.
type mockWatchService struct {
	emit     []*domain.RunSummary
	err      error
	lastOpts driving.WatchOptions
}

func (m *mockWatchService) Watch(_ context.Context, opts driving.WatchOptions) error {
	m.lastOpts = opts
	for _, s := range m.emit {
		if opts.OnRun != nil {
			opts.OnRun(s, nil)
		}
	}
	return m.err
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// withServices installs services for one test and restores them afterwards.
func withServices(svcs Services) func() {
	oldSettings, oldSync, oldHistory, oldWatch, oldPath := settingsService, syncOrchestrator, runHistory, watchService, manifestPath
	settingsService = svcs.Settings
	syncOrchestrator = svcs.Sync
	runHistory = svcs.History
	watchService = svcs.Watch
	manifestPath = svcs.ManifestPath
	return func() {
		settingsService, syncOrchestrator, runHistory, watchService, manifestPath = oldSettings, oldSync, oldHistory, oldWatch, oldPath
		syncDryRun, syncEngineRunning = false, false
		watchEngineRunning = false
		watchInterval, watchDebounce = time.Hour, 5*time.Second
		historyLimit = 20
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}
