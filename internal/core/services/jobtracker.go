package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// RC routes used by the core.
const (
	RouteMount     = "mount/mount"
	RouteSync      = "sync/sync"
	RouteCopyFile  = "operations/copyfile"
	RouteJobStatus = "job/status"
	RouteVersion   = "core/version"
)

// maxConcurrentPolls bounds status RPCs in flight during one poll cycle.
const maxConcurrentPolls = 8

// JobRequest describes an asynchronous engine operation to submit.
type JobRequest struct {
	Kind   domain.JobKind
	Route  string
	Remote string
	Params map[string]string
}

// JobTracker submits asynchronous jobs to the transfer engine and polls them
// until they reach a terminal outcome.
type JobTracker struct {
	engine        driven.TransferEngine
	clock         clockwork.Clock
	pollInterval  time.Duration
	timeout       time.Duration
	maxPollErrors int

	mu      sync.Mutex
	strikes map[int64]int
}

// JobTrackerOption configures a JobTracker.
type JobTrackerOption func(*JobTracker)

// WithPollInterval sets the delay between poll cycles.
func WithPollInterval(d time.Duration) JobTrackerOption {
	return func(t *JobTracker) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// WithJobTimeout sets how long a job may stay pending. Zero disables it.
func WithJobTimeout(d time.Duration) JobTrackerOption {
	return func(t *JobTracker) { t.timeout = d }
}

// WithMaxPollErrors sets how many consecutive failed status checks fail a job.
// Zero disables the bound.
func WithMaxPollErrors(n int) JobTrackerOption {
	return func(t *JobTracker) { t.maxPollErrors = n }
}

// WithClock sets the clock used for timestamps, timeouts and poll delays.
func WithClock(c clockwork.Clock) JobTrackerOption {
	return func(t *JobTracker) {
		if c != nil {
			t.clock = c
		}
	}
}

// NewJobTracker creates a tracker for engine.
func NewJobTracker(engine driven.TransferEngine, opts ...JobTrackerOption) *JobTracker {
	defaults := domain.DefaultAppSettings().Jobs
	t := &JobTracker{
		engine:        engine,
		clock:         clockwork.NewRealClock(),
		pollInterval:  defaults.PollInterval,
		timeout:       defaults.Timeout,
		maxPollErrors: defaults.MaxPollErrors,
		strikes:       make(map[int64]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Submit issues one RPC to start req asynchronously. Unreachable engines
// and rejected requests yield a *domain.SubmissionError. Submission is
// never retried.
func (t *JobTracker) Submit(ctx context.Context, req JobRequest) (domain.Job, error) {
	params := make(map[string]string, len(req.Params)+1)
	for k, v := range req.Params {
		params[k] = v
	}
	params["_async"] = "true"

	resp, err := t.engine.Call(ctx, driven.RCRequest{Command: req.Route, Params: params})
	if err != nil {
		return domain.Job{}, &domain.SubmissionError{Route: req.Route, Err: err}
	}
	if resp.JobID <= 0 {
		return domain.Job{}, &domain.SubmissionError{
			Route: req.Route,
			Err:   fmt.Errorf("%w: engine returned no job id", domain.ErrInvalidInput),
		}
	}

	job := domain.Job{
		ID:          resp.JobID,
		Kind:        req.Kind,
		Route:       req.Route,
		Remote:      req.Remote,
		SubmittedAt: t.clock.Now(),
	}
	logger.Debug("Submitted %s job %d for remote %s", job.Kind, job.ID, job.Remote)
	return job, nil
}

// PollOnce checks the status of job once. It never returns an error: a
// failed status check counts as pending until MaxPollErrors consecutive
// failures, after which the job is failed with a *domain.PollError.
func (t *JobTracker) PollOnce(ctx context.Context, job domain.Job) domain.JobResult {
	result := domain.JobResult{Job: job, Outcome: domain.JobPending}

	resp, err := t.engine.Call(ctx, driven.RCRequest{
		Command: RouteJobStatus,
		Params:  map[string]string{"jobid": strconv.FormatInt(job.ID, 10)},
	})
	if err != nil {
		attempts := t.strike(job.ID)
		logger.Debug("Status check for job %d failed (attempt %d): %v", job.ID, attempts, err)
		if t.maxPollErrors > 0 && attempts >= t.maxPollErrors {
			result.Outcome = domain.JobFailed
			result.Err = &domain.PollError{JobID: job.ID, Attempts: attempts, Err: err}
			return t.finish(result)
		}
		return t.checkTimeout(result)
	}
	t.resetStrikes(job.ID)

	if resp.Finished {
		if resp.Success {
			result.Outcome = domain.JobSucceeded
		} else {
			result.Outcome = domain.JobFailed
			reason := resp.Error
			if reason == "" {
				reason = "finished unsuccessfully"
			}
			result.Err = fmt.Errorf("%w: %s job %d: %s", domain.ErrJobFailed, job.Kind, job.ID, reason)
		}
		return t.finish(result)
	}
	return t.checkTimeout(result)
}

// AwaitAll polls every job still pending at the poll interval, removing each
// the moment it finishes, and returns once none is pending. Results are keyed
// by job id. If ctx is done first, the remaining jobs are reported failed
// with the context error.
func (t *JobTracker) AwaitAll(ctx context.Context, jobs []domain.Job) map[int64]domain.JobResult {
	pending := make(map[int64]domain.Job, len(jobs))
	for _, job := range jobs {
		pending[job.ID] = job
	}
	results := make(map[int64]domain.JobResult, len(pending))

	for len(pending) > 0 {
		for _, res := range t.pollCycle(ctx, pending) {
			if !res.Outcome.Finished() {
				continue
			}
			results[res.Job.ID] = res
			delete(pending, res.Job.ID)
		}
		if len(pending) == 0 {
			break
		}

		select {
		case <-ctx.Done():
			for id, job := range pending {
				results[id] = t.finish(domain.JobResult{
					Job:     job,
					Outcome: domain.JobFailed,
					Err:     fmt.Errorf("await job %d: %w", id, ctx.Err()),
				})
			}
			return results
		case <-t.clock.After(t.pollInterval):
		}
	}
	return results
}

// pollCycle polls every pending job concurrently.
func (t *JobTracker) pollCycle(ctx context.Context, pending map[int64]domain.Job) []domain.JobResult {
	out := make([]domain.JobResult, 0, len(pending))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(maxConcurrentPolls)
	for _, job := range pending {
		g.Go(func() error {
			res := t.PollOnce(ctx, job)
			mu.Lock()
			out = append(out, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // PollOnce never fails

	return out
}

func (t *JobTracker) checkTimeout(result domain.JobResult) domain.JobResult {
	if t.timeout <= 0 {
		return result
	}
	if t.clock.Since(result.Job.SubmittedAt) < t.timeout {
		return result
	}
	result.Outcome = domain.JobFailed
	result.Err = fmt.Errorf("%w: %s job %d after %s", domain.ErrJobTimeout, result.Job.Kind, result.Job.ID, t.timeout)
	return t.finish(result)
}

func (t *JobTracker) finish(result domain.JobResult) domain.JobResult {
	t.resetStrikes(result.Job.ID)

	fields := logger.Fields{"job": result.Job.ID, "kind": result.Job.Kind, "remote": result.Job.Remote}
	if result.Outcome == domain.JobFailed {
		entry := logger.WithFields(fields).WithError(result.Err)
		if errors.Is(result.Err, context.Canceled) {
			entry.Debug("Job abandoned")
		} else {
			entry.Warn("Job failed")
		}
		return result
	}
	logger.WithFields(fields).Debug("Job succeeded")
	return result
}

func (t *JobTracker) strike(id int64) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.strikes[id]++
	return t.strikes[id]
}

func (t *JobTracker) resetStrikes(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.strikes, id)
}
