package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// MountRegistry tracks which remotes are mounted during one run, so each
// remote is mounted at most once however many items target it.
// Create a new registry for every run.
type MountRegistry struct {
	jobs      *JobTracker
	unmounter driven.Unmounter

	mu      sync.Mutex
	records map[string]*domain.MountRecord
	order   []string
}

// NewMountRegistry creates an empty registry.
func NewMountRegistry(jobs *JobTracker, unmounter driven.Unmounter) *MountRegistry {
	return &MountRegistry{
		jobs:      jobs,
		unmounter: unmounter,
		records:   make(map[string]*domain.MountRecord),
	}
}

// EnsureMounted submits a mount job for remote unless it is already recorded.
// It returns the job to await, or nil when nothing was submitted.
//
// The mount is recorded before the job completes. If a previous attempt for
// remote failed, or the submission itself fails, ErrMountFailed is returned
// and no job is submitted again.
func (r *MountRegistry) EnsureMounted(ctx context.Context, remote domain.RemoteDefinition) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.records[remote.Name]; ok {
		if rec.Failed {
			return nil, fmt.Errorf("%w: %s", domain.ErrMountFailed, remote.Name)
		}
		return nil, nil
	}

	rec := &domain.MountRecord{Remote: remote.Name, Mountpoint: remote.Mountpoint}
	r.records[remote.Name] = rec
	r.order = append(r.order, remote.Name)

	job, err := r.jobs.Submit(ctx, JobRequest{
		Kind:   domain.JobKindMount,
		Route:  RouteMount,
		Remote: remote.Name,
		Params: map[string]string{
			"fs":         remote.Address(""),
			"mountPoint": remote.Mountpoint,
		},
	})
	if err != nil {
		rec.Failed = true
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrMountFailed, remote.Name, err)
	}
	rec.Submitted = true

	logger.Info("Mounting %s at %s (job %d)", remote.Name, remote.Mountpoint, job.ID)
	return &job, nil
}

// MarkFailed records that the mount job for remote finished unsuccessfully.
func (r *MountRegistry) MarkFailed(remote string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[remote]; ok {
		rec.Failed = true
	}
}

// Failed reports whether remote has a failed mount record.
func (r *MountRegistry) Failed(remote string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[remote]
	return ok && rec.Failed
}

// Records returns the recorded mounts in the order they were first requested.
func (r *MountRegistry) Records() []domain.MountRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.MountRecord, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.records[name])
	}
	return out
}

// DismountAll force-unmounts every distinct mountpoint this run submitted a
// mount job for, including those whose job failed. Mountpoints whose
// submission was rejected are left alone. It continues past errors and
// returns the mountpoints that could not be unmounted.
func (r *MountRegistry) DismountAll(ctx context.Context) []string {
	seen := make(map[string]bool)
	var failed []string

	for _, rec := range r.Records() {
		if !rec.Submitted || seen[rec.Mountpoint] {
			continue
		}
		seen[rec.Mountpoint] = true

		if err := r.unmounter.Unmount(ctx, rec.Mountpoint); err != nil {
			logger.WithFields(logger.Fields{"remote": rec.Remote, "mountpoint": rec.Mountpoint}).
				WithError(err).Warn("Unmount failed")
			failed = append(failed, rec.Mountpoint)
			continue
		}
		logger.Debug("Unmounted %s", rec.Mountpoint)
	}
	return failed
}
