package domain

import "time"

// JobKind identifies what an engine job does.
type JobKind string

// Job kinds submitted by the orchestrator.
const (
	JobKindMount    JobKind = "mount"
	JobKindTransfer JobKind = "transfer"
)

// Job is one asynchronous unit of engine work.
// Job IDs are assigned by the engine and only valid for its process lifetime.
type Job struct {
	// ID is the engine-assigned job id.
	ID int64

	// Kind is mount or transfer.
	Kind JobKind

	// Route is the RC route that created the job.
	Route string

	// Remote is the remote name the job targets.
	Remote string

	// SubmittedAt is when the submission RPC returned.
	SubmittedAt time.Time
}

// JobOutcome is the tagged state of a job.
type JobOutcome int

// Job outcomes. Only Pending is non-terminal.
const (
	JobPending JobOutcome = iota
	JobSucceeded
	JobFailed
)

// String returns the outcome name.
func (o JobOutcome) String() string {
	switch o {
	case JobPending:
		return "pending"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Finished reports whether the outcome is terminal.
func (o JobOutcome) Finished() bool {
	return o == JobSucceeded || o == JobFailed
}

// JobResult pairs a job with its latest observed outcome.
type JobResult struct {
	Job     Job
	Outcome JobOutcome

	// Err explains a JobFailed outcome. It wraps ErrJobFailed, ErrJobTimeout
	// or a *PollError.
	Err error
}

// Succeeded reports whether the job finished successfully.
func (r JobResult) Succeeded() bool {
	return r.Outcome == JobSucceeded
}
