package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

func watchManifest() *fakeManifestSource {
	return &fakeManifestSource{manifest: &domain.Manifest{
		Items: []domain.UploadItem{
			{Name: "docs", SourcePath: "/home/u/docs", TargetRemotes: []string{"A"}},
			{Name: "photos", SourcePath: "/home/u/photos", TargetRemotes: []string{"B"}},
		},
		Remotes: twoRemotes(),
	}}
}

// startWatcher runs w in the background and returns a function that stops
// it and returns Start's error.
func startWatcher(t *testing.T, w *Watcher) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	var once sync.Once
	var result error
	stop := func() error {
		once.Do(func() {
			cancel()
			select {
			case result = <-errCh:
			case <-time.After(5 * time.Second):
				t.Fatal("watcher did not stop")
			}
		})
		return result
	}
	t.Cleanup(func() { _ = stop() })
	return stop
}

func TestWatcher_RequiresTrigger(t *testing.T) {
	w := NewWatcher(&fakeOrchestrator{}, watchManifest(), nil, WatcherConfig{})

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWatcher_RunsOnStartup(t *testing.T) {
	orch := &fakeOrchestrator{}
	w := NewWatcher(orch, watchManifest(), newFakeNotifier(), WatcherConfig{Debounce: time.Hour})

	stop := startWatcher(t, w)

	require.Eventually(t, func() bool { return orch.runCount() == 1 }, 5*time.Second, time.Millisecond)
	assert.ErrorIs(t, stop(), context.Canceled)
	assert.Equal(t, 1, w.Runs())
}

func TestWatcher_WatchesSelectedItems(t *testing.T) {
	notifier := newFakeNotifier()
	orch := &fakeOrchestrator{}
	w := NewWatcher(orch, watchManifest(), notifier, WatcherConfig{
		Debounce: time.Hour,
		Options:  driving.RunOptions{Items: []string{"photos"}},
	})

	startWatcher(t, w)

	require.Eventually(t, func() bool { return orch.runCount() == 1 }, 5*time.Second, time.Millisecond)
	assert.Equal(t, []string{"/home/u/photos"}, notifier.watched())
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	notifier := newFakeNotifier()
	orch := &fakeOrchestrator{}
	w := NewWatcher(orch, watchManifest(), notifier, WatcherConfig{Debounce: 50 * time.Millisecond})

	startWatcher(t, w)
	require.Eventually(t, func() bool { return orch.runCount() == 1 }, 5*time.Second, time.Millisecond)

	// A burst of changes leads to a single run.
	for i := 0; i < 5; i++ {
		notifier.events <- "/home/u/docs"
	}

	require.Eventually(t, func() bool { return orch.runCount() == 2 }, 5*time.Second, time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 2, orch.runCount())
}

func TestWatcher_PeriodicRuns(t *testing.T) {
	orch := &fakeOrchestrator{}
	w := NewWatcher(orch, watchManifest(), nil, WatcherConfig{Interval: 10 * time.Millisecond})

	startWatcher(t, w)

	require.Eventually(t, func() bool { return orch.runCount() >= 3 }, 5*time.Second, time.Millisecond)
}

func TestWatcher_RunsNeverOverlap(t *testing.T) {
	notifier := newFakeNotifier()
	orch := &fakeOrchestrator{delay: 20 * time.Millisecond}
	w := NewWatcher(orch, watchManifest(), notifier, WatcherConfig{
		Interval: 5 * time.Millisecond,
		Debounce: time.Millisecond,
	})

	startWatcher(t, w)
	for i := 0; i < 10; i++ {
		notifier.events <- "/home/u/docs"
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return orch.runCount() >= 3 }, 5*time.Second, time.Millisecond)
	assert.False(t, orch.overlapped())
}

func TestWatcher_RunErrorsDoNotStopLoop(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("engine exploded")}
	var mu sync.Mutex
	var seen []error

	w := NewWatcher(orch, watchManifest(), nil, WatcherConfig{Interval: 5 * time.Millisecond})
	w.OnRun = func(_ *domain.RunSummary, err error) {
		mu.Lock()
		seen = append(seen, err)
		mu.Unlock()
	}

	startWatcher(t, w)

	require.Eventually(t, func() bool { return orch.runCount() >= 2 }, 5*time.Second, time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.EqualError(t, seen[0], "engine exploded")
}

func TestWatcher_Stop(t *testing.T) {
	orch := &fakeOrchestrator{}
	w := NewWatcher(orch, watchManifest(), nil, WatcherConfig{Interval: time.Hour})

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(context.Background()) }()
	require.Eventually(t, func() bool { return orch.runCount() == 1 }, 5*time.Second, time.Millisecond)

	w.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	// Stop on a stopped watcher is a no-op.
	w.Stop()
}

func TestWatcher_ManifestError(t *testing.T) {
	source := &fakeManifestSource{err: domain.ErrNoManifest}
	w := NewWatcher(&fakeOrchestrator{}, source, newFakeNotifier(), WatcherConfig{})

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoManifest)
}

func TestWatcher_NotifierError(t *testing.T) {
	notifier := newFakeNotifier()
	notifier.err = errors.New("too many open files")
	w := NewWatcher(&fakeOrchestrator{}, watchManifest(), notifier, WatcherConfig{})

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many open files")
}

func TestWatchService_CancelIsNotAnError(t *testing.T) {
	orch := &fakeOrchestrator{}
	svc := NewWatchService(orch, watchManifest(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Watch(ctx, driving.WatchOptions{
			Interval: time.Hour,
			OnRun: func(*domain.RunSummary, error) {
				select {
				case runs <- struct{}{}:
				default:
				}
			},
		})
	}()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("no startup run")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}
}
