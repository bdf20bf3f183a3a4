package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
)

// SyncOrchestrator mirrors configured upload items to their remotes.
type SyncOrchestrator interface {
	// Run executes one sync run. The returned error is non-nil only for
	// failures that abort the whole run (config, cache load, engine start).
	// Per-item failures are reported in the summary; see RunSummary.Err.
	Run(ctx context.Context, opts RunOptions) (*domain.RunSummary, error)

	// Status reports the cache state of every manifest item.
	Status(ctx context.Context) ([]ItemStatus, error)
}

// RunOptions tunes a single run.
type RunOptions struct {
	// Items limits the run to these item names. Empty means all items.
	Items []string

	// DryRun reports which items need syncing without submitting jobs.
	DryRun bool

	// EngineRunning indicates the engine daemon was started by the caller
	// and must not be started or stopped by the run.
	EngineRunning bool
}

// ItemStatus is the cache view of one upload item.
type ItemStatus struct {
	Item domain.UploadItem

	// Entry is nil when the item was never synced.
	Entry *domain.CacheEntry

	// NeedsSync is true when the next run would upload the item.
	NeedsSync bool

	// Err is set when the source path could not be inspected.
	Err error
}

// RunHistory exposes recorded runs.
type RunHistory interface {
	// Recent returns up to limit runs, most recent first.
	Recent(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// WatchOptions tunes watch mode.
type WatchOptions struct {
	// Interval between periodic runs. Zero disables periodic runs.
	Interval time.Duration

	// Debounce is the quiet period after a change before a run starts.
	Debounce time.Duration

	// Run is passed to every run.
	Run RunOptions

	// OnRun is called after every run. Optional.
	OnRun func(summary *domain.RunSummary, err error)
}

// WatchService keeps upload items in sync until cancelled.
type WatchService interface {
	// Watch blocks, running syncs on changes and on the interval, until ctx is done.
	Watch(ctx context.Context, opts WatchOptions) error
}
