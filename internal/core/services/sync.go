package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator mirrors upload items to their remotes through the
// transfer engine. Items are processed one at a time in manifest order; a
// failing item never stops the others.
type SyncOrchestrator struct {
	manifests  driven.ManifestSource
	cacheStore driven.CacheStore
	engine     driven.TransferEngine
	process    driven.EngineProcess
	unmounter  driven.Unmounter
	inspector  driven.PathInspector
	runStore   driven.RunStore
	settings   domain.AppSettings

	clock       clockwork.Clock
	trackerOpts []JobTrackerOption

	mu      sync.Mutex
	running bool
}

// NewSyncOrchestrator creates a new sync orchestrator.
// runStore is optional - if nil, runs are not recorded.
func NewSyncOrchestrator(
	manifests driven.ManifestSource,
	cacheStore driven.CacheStore,
	engine driven.TransferEngine,
	process driven.EngineProcess,
	unmounter driven.Unmounter,
	inspector driven.PathInspector,
	runStore driven.RunStore,
	settings domain.AppSettings,
) *SyncOrchestrator {
	clock := clockwork.NewRealClock()
	return &SyncOrchestrator{
		manifests:  manifests,
		cacheStore: cacheStore,
		engine:     engine,
		process:    process,
		unmounter:  unmounter,
		inspector:  inspector,
		runStore:   runStore,
		settings:   settings,
		clock:      clock,
		trackerOpts: []JobTrackerOption{
			WithClock(clock),
			WithPollInterval(settings.Jobs.PollInterval),
			WithJobTimeout(settings.Jobs.Timeout),
			WithMaxPollErrors(settings.Jobs.MaxPollErrors),
		},
	}
}

// run carries the per-run collaborators.
type run struct {
	manifest *domain.Manifest
	cache    *ChangeCache
	jobs     *JobTracker
	mounts   *MountRegistry
	dryRun   bool
}

// Run executes one sync run.
// Only config, cache load and engine startup failures abort the run; every
// other failure is confined to its item and reported in the summary.
func (o *SyncOrchestrator) Run(ctx context.Context, opts driving.RunOptions) (*domain.RunSummary, error) {
	if !o.begin() {
		return nil, domain.ErrRunInProgress
	}
	defer o.end()

	summary := &domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: o.clock.Now(),
		DryRun:    opts.DryRun,
	}

	// 1. Load and validate the manifest
	manifest, items, err := o.loadManifest(opts.Items)
	if err != nil {
		return nil, err
	}

	// 2. Load the change cache
	cache := NewChangeCache(o.cacheStore, o.clock)
	if _, err := cache.Load(ctx); err != nil {
		return nil, err
	}

	// 3. Start the engine (dry runs never talk to it)
	tracker := NewJobTracker(o.engine, o.trackerOpts...)
	r := &run{
		manifest: manifest,
		cache:    cache,
		jobs:     tracker,
		mounts:   NewMountRegistry(tracker, o.unmounter),
		dryRun:   opts.DryRun,
	}

	var handle *EngineHandle
	if !opts.DryRun {
		handle = NewEngineHandle(o.engine, o.process, o.settings.Engine, opts.EngineRunning)
		if err := handle.Start(ctx); err != nil {
			return nil, fmt.Errorf("start engine: %w", err)
		}
	}

	logger.Info("Starting run %s: %d items", summary.RunID, len(items))

	// 4. Process every item in declaration order
	for _, item := range items {
		res := o.syncItem(ctx, r, item)
		summary.Items = append(summary.Items, res)
	}

	// 5. Cleanup, even after cancellation
	cleanupCtx := context.WithoutCancel(ctx)
	summary.UnmountFailures = r.mounts.DismountAll(cleanupCtx)
	if handle != nil {
		if err := handle.Stop(cleanupCtx); err != nil {
			logger.Warn("Failed to stop transfer engine: %v", err)
		}
	}
	summary.Cancelled = ctx.Err() != nil
	summary.EndedAt = o.clock.Now()

	// 6. Record the run
	if o.runStore != nil {
		if err := o.runStore.RecordRun(cleanupCtx, summary.Record()); err != nil {
			logger.Warn("Failed to record run %s: %v", summary.RunID, err)
		}
	}

	logger.Info("Run %s complete: %d synced, %d skipped, %d failed",
		summary.RunID, summary.Completed(), summary.Skipped(), summary.Failed())
	return summary, nil
}

// Status reports the cache view of every manifest item without touching the engine.
func (o *SyncOrchestrator) Status(ctx context.Context) ([]driving.ItemStatus, error) {
	_, items, err := o.loadManifest(nil)
	if err != nil {
		return nil, err
	}

	cache := NewChangeCache(o.cacheStore, o.clock)
	if _, err := cache.Load(ctx); err != nil {
		return nil, err
	}

	statuses := make([]driving.ItemStatus, 0, len(items))
	for _, item := range items {
		st := driving.ItemStatus{Item: item}
		if entry, ok := cache.Get(item.SourcePath); ok {
			st.Entry = &entry
		}

		info, err := o.classify(item.SourcePath)
		if err != nil {
			st.Err = err
		} else {
			st.NeedsSync = cache.NeedsSync(item.SourcePath, info.ModTime)
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (o *SyncOrchestrator) loadManifest(names []string) (*domain.Manifest, []domain.UploadItem, error) {
	manifest, err := o.manifests.Manifest()
	if err != nil {
		return nil, nil, fmt.Errorf("load manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, nil, err
	}
	items, err := manifest.Select(names)
	if err != nil {
		return nil, nil, err
	}
	return manifest, items, nil
}

// syncItem drives one item through its state machine.
//
//nolint:gocyclo // Sequential state machine steps
func (o *SyncOrchestrator) syncItem(ctx context.Context, r *run, item domain.UploadItem) domain.ItemResult {
	res := domain.ItemResult{Item: item, State: domain.ItemNew, StartedAt: o.clock.Now()}
	done := func(state domain.ItemState, err error) domain.ItemResult {
		res.State = state
		res.Err = err
		res.EndedAt = o.clock.Now()
		if state == domain.ItemFailed {
			logger.WithFields(logger.Fields{"item": item.Name}).WithError(err).Warn("Item failed")
		}
		return res
	}

	if err := ctx.Err(); err != nil {
		return done(domain.ItemCancelled, fmt.Errorf("%w: %w", domain.ErrCancelled, err))
	}

	// 1. Classify and detect changes
	info, err := o.classify(item.SourcePath)
	if err != nil {
		return done(domain.ItemFailed, err)
	}
	if !r.cache.NeedsSync(item.SourcePath, info.ModTime) {
		res.Note = "unchanged since last sync"
		logger.Info("Skipping %s: %s", item.Label(), res.Note)
		return done(domain.ItemSkipped, nil)
	}
	if r.dryRun {
		res.Note = "dry run: would sync"
		logger.Info("Would sync %s", item.Label())
		return done(domain.ItemSkipped, nil)
	}

	remotes := make([]domain.RemoteDefinition, 0, len(item.TargetRemotes))
	for _, name := range item.TargetRemotes {
		remote, ok := r.manifest.Remote(name)
		if !ok {
			return done(domain.ItemFailed, fmt.Errorf("%w: remote %s", domain.ErrNotFound, name))
		}
		remotes = append(remotes, remote)
	}

	// In-flight jobs are always awaited, even after cancellation.
	awaitCtx := context.WithoutCancel(ctx)

	// 2. Mount every target remote
	res.State = domain.ItemMounting
	logger.Info("Syncing %s to %d remotes", item.Label(), len(remotes))
	var mountJobs []domain.Job
	var mountErr error
	for _, remote := range remotes {
		job, err := r.mounts.EnsureMounted(ctx, remote)
		if err != nil {
			mountErr = err
			break
		}
		if job != nil {
			mountJobs = append(mountJobs, *job)
		}
	}
	var mountFailures []error
	mountResults := r.jobs.AwaitAll(awaitCtx, mountJobs)
	for _, job := range mountJobs {
		jr := mountResults[job.ID]
		res.Jobs = append(res.Jobs, jr)
		if !jr.Succeeded() {
			r.mounts.MarkFailed(jr.Job.Remote)
			mountFailures = append(mountFailures, fmt.Errorf("%w: %s: %w", domain.ErrMountFailed, jr.Job.Remote, jr.Err))
		}
	}
	if mountErr != nil {
		mountFailures = append([]error{mountErr}, mountFailures...)
	}
	if len(mountFailures) > 0 {
		return done(domain.ItemFailed, errors.Join(mountFailures...))
	}

	// 3. Transfer to every target remote
	res.State = domain.ItemTransferring
	var transferJobs []domain.Job
	var submitErr error
	for _, remote := range remotes {
		if err := ctx.Err(); err != nil {
			submitErr = fmt.Errorf("%w: %w", domain.ErrCancelled, err)
			break
		}
		job, err := r.jobs.Submit(ctx, transferRequest(item, remote, info.Kind))
		if err != nil {
			submitErr = err
			break
		}
		transferJobs = append(transferJobs, job)
	}

	var failures []error
	if submitErr != nil {
		failures = append(failures, submitErr)
	}
	transferResults := r.jobs.AwaitAll(awaitCtx, transferJobs)
	for _, job := range transferJobs {
		jr := transferResults[job.ID]
		res.Jobs = append(res.Jobs, jr)
		if !jr.Succeeded() {
			failures = append(failures, fmt.Errorf("transfer to %s: %w", jr.Job.Remote, jr.Err))
		}
	}
	if len(failures) > 0 {
		return done(domain.ItemFailed, errors.Join(failures...))
	}

	// 4. Record the sync
	if err := r.cache.RecordSync(awaitCtx, item.SourcePath); err != nil {
		return done(domain.ItemFailed, err)
	}
	res.State = domain.ItemCacheUpdated
	logger.Info("Synced %s", item.Label())
	return done(domain.ItemDone, nil)
}

// classify inspects path and rejects anything that is neither a file nor a directory.
func (o *SyncOrchestrator) classify(p string) (driven.PathInfo, error) {
	info, err := o.inspector.Inspect(p)
	if err != nil {
		return driven.PathInfo{}, &domain.ClassificationError{Path: p, Err: err}
	}
	if info.Kind != driven.PathFile && info.Kind != driven.PathDir {
		return driven.PathInfo{}, &domain.ClassificationError{Path: p}
	}
	return info, nil
}

// transferRequest builds the job for copying item to remote.
// Directories are mirrored into backend:subdir; files are copied to
// backend:subdir/name.
func transferRequest(item domain.UploadItem, remote domain.RemoteDefinition, kind driven.PathKind) JobRequest {
	if kind == driven.PathDir {
		return JobRequest{
			Kind:   domain.JobKindTransfer,
			Route:  RouteSync,
			Remote: remote.Name,
			Params: map[string]string{
				"srcFs":              item.SourcePath,
				"dstFs":              remote.Address(item.TargetSubdir),
				"createEmptySrcDirs": "true",
			},
		}
	}
	return JobRequest{
		Kind:   domain.JobKindTransfer,
		Route:  RouteCopyFile,
		Remote: remote.Name,
		Params: map[string]string{
			"srcFs":     filepath.Dir(item.SourcePath),
			"srcRemote": filepath.Base(item.SourcePath),
			"dstFs":     remote.Address(""),
			"dstRemote": path.Join(item.TargetSubdir, item.Name),
		},
	}
}

func (o *SyncOrchestrator) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *SyncOrchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
}
