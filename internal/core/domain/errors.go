package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent sync failures that callers branch on.
// These are distinct from infrastructure errors, which are wrapped.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoManifest indicates no upload manifest could be found.
	ErrNoManifest = errors.New("no upload manifest")

	// ErrEngineStart indicates the transfer engine process could not be started.
	ErrEngineStart = errors.New("transfer engine failed to start")

	// ErrEngineNotReady indicates the engine never answered its readiness probe.
	ErrEngineNotReady = errors.New("transfer engine not ready")

	// ErrEngineVersion indicates the running engine is older than required.
	ErrEngineVersion = errors.New("transfer engine version unsupported")

	// ErrItemFailed marks a run in which at least one upload item failed.
	ErrItemFailed = errors.New("one or more upload items failed")

	// ErrMountFailed indicates a remote could not be mounted in this run.
	ErrMountFailed = errors.New("mount failed")

	// ErrJobFailed indicates the engine reported a job as finished unsuccessfully.
	ErrJobFailed = errors.New("job failed")

	// ErrJobTimeout indicates a job did not finish within the job timeout.
	ErrJobTimeout = errors.New("job timed out")

	// ErrCancelled indicates the run was cancelled before an item started.
	ErrCancelled = errors.New("cancelled")

	// ErrRunInProgress indicates a watcher run is already executing.
	ErrRunInProgress = errors.New("run in progress")
)

// ConfigError reports a missing or invalid manifest section.
// It is fatal: the run aborts before any mount or transfer begins.
type ConfigError struct {
	Section string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.Section == "" {
		return "config error: " + e.Reason
	}
	return fmt.Sprintf("config error in %s: %s", e.Section, e.Reason)
}

// SubmissionError reports that the engine was unreachable or rejected a job.
// It fails the owning upload item only.
type SubmissionError struct {
	Route string
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit %s: %v", e.Route, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PollError reports a failed job status check.
// Poll errors are retried until MaxPollErrors consecutive failures.
type PollError struct {
	JobID    int64
	Attempts int
	Err      error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("poll job %d (%d attempts): %v", e.JobID, e.Attempts, e.Err)
}

func (e *PollError) Unwrap() error { return e.Err }

// ClassificationError reports a source path that is neither a file nor a directory.
type ClassificationError struct {
	Path string
	Err  error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classify %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("classify %s: neither a file nor a directory", e.Path)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// UnmountError collects mountpoints that could not be unmounted during cleanup.
// It is reported but never makes a run fail on its own.
type UnmountError struct {
	Mountpoints []string
}

func (e *UnmountError) Error() string {
	return "unmount failed: " + strings.Join(e.Mountpoints, ", ")
}
