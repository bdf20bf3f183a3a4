package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// Default watch timings.
const (
	DefaultWatchDebounce = 5 * time.Second
	DefaultWatchInterval = time.Hour
)

// WatcherConfig controls when the watcher starts runs.
type WatcherConfig struct {
	// Interval between periodic runs. Zero disables periodic runs.
	Interval time.Duration

	// Debounce is the quiet period after the last change before a run starts.
	Debounce time.Duration

	// Options are passed to every run.
	Options driving.RunOptions
}

// Watcher re-runs the orchestrator when source paths change and on a fixed
// interval. It runs once on start. Runs are sequential and never overlap;
// changes seen during a run schedule another one after it.
type Watcher struct {
	orch      driving.SyncOrchestrator
	manifests driven.ManifestSource
	notifier  driven.ChangeNotifier
	config    WatcherConfig
	clock     clockwork.Clock

	// OnRun is called after every run. Optional.
	OnRun func(summary *domain.RunSummary, err error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	runs    int
}

// NewWatcher creates a watcher. notifier is optional - if nil, only
// periodic runs happen.
func NewWatcher(
	orch driving.SyncOrchestrator,
	manifests driven.ManifestSource,
	notifier driven.ChangeNotifier,
	config WatcherConfig,
) *Watcher {
	if config.Debounce <= 0 {
		config.Debounce = DefaultWatchDebounce
	}
	return &Watcher{
		orch:      orch,
		manifests: manifests,
		notifier:  notifier,
		config:    config,
		clock:     clockwork.NewRealClock(),
	}
}

// Runs returns how many runs have completed.
func (w *Watcher) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

// Start runs the watch loop. It blocks until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if w.notifier == nil && w.config.Interval <= 0 {
		return fmt.Errorf("%w: watch needs a change notifier or an interval", domain.ErrInvalidInput)
	}

	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return domain.ErrRunInProgress
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	changes, err := w.watchChanges(ctx)
	if err != nil {
		return err
	}

	return w.loop(ctx, stopCh, changes)
}

// Stop ends the watch loop after any in-progress run finishes.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

// watchChanges subscribes to the source paths of the selected items.
// A nil channel is returned when no notifier is configured.
func (w *Watcher) watchChanges(ctx context.Context) (<-chan string, error) {
	if w.notifier == nil {
		return nil, nil
	}

	manifest, err := w.manifests.Manifest()
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	items, err := manifest.Select(w.config.Options.Items)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.SourcePath)
	}
	logger.Debug("watching %d source paths", len(paths))

	changes, err := w.notifier.Watch(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("watch source paths: %w", err)
	}
	return changes, nil
}

func (w *Watcher) loop(ctx context.Context, stopCh <-chan struct{}, changes <-chan string) error {
	w.runOnce(ctx, "startup")

	var tick <-chan time.Time
	if w.config.Interval > 0 {
		ticker := w.clock.NewTicker(w.config.Interval)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	var debounce clockwork.Timer
	var debounceC <-chan time.Time
	stopDebounce := func() {
		if debounce != nil {
			debounce.Stop()
		}
		debounce, debounceC = nil, nil
	}
	defer stopDebounce()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-tick:
			stopDebounce()
			w.runOnce(ctx, "interval")
		case path, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			logger.Debug("change detected under %s", path)
			if debounce == nil {
				debounce = w.clock.NewTimer(w.config.Debounce)
				debounceC = debounce.Chan()
			} else {
				debounce.Reset(w.config.Debounce)
			}
		case <-debounceC:
			debounce, debounceC = nil, nil
			w.runOnce(ctx, "change")
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	logger.Info("starting %s run", reason)

	summary, err := w.orch.Run(ctx, w.config.Options)
	switch {
	case err != nil && errors.Is(err, domain.ErrRunInProgress):
		logger.Warn("skipping %s run: another run is in progress", reason)
	case err != nil:
		logger.Error("%s run failed: %v", reason, err)
	}

	w.mu.Lock()
	w.runs++
	w.mu.Unlock()

	if w.OnRun != nil {
		w.OnRun(summary, err)
	}
}

// Ensure WatchService implements the interface.
var _ driving.WatchService = (*WatchService)(nil)

// WatchService builds a Watcher per Watch call.
type WatchService struct {
	orch      driving.SyncOrchestrator
	manifests driven.ManifestSource
	notifier  driven.ChangeNotifier
}

// NewWatchService creates a watch service. notifier is optional.
func NewWatchService(
	orch driving.SyncOrchestrator,
	manifests driven.ManifestSource,
	notifier driven.ChangeNotifier,
) *WatchService {
	return &WatchService{orch: orch, manifests: manifests, notifier: notifier}
}

// Watch runs a watcher until ctx is done. Cancellation is not an error.
func (s *WatchService) Watch(ctx context.Context, opts driving.WatchOptions) error {
	w := NewWatcher(s.orch, s.manifests, s.notifier, WatcherConfig{
		Interval: opts.Interval,
		Debounce: opts.Debounce,
		Options:  opts.Run,
	})
	w.OnRun = opts.OnRun

	err := w.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
