package domain

import "time"

// CacheEntry records when a source path was last synced successfully.
// There is one entry per source path; entries are overwritten, never deleted.
type CacheEntry struct {
	// SourcePath is the absolute local path and the cache key.
	SourcePath string

	// LastSyncedAt is when the last successful sync of SourcePath completed.
	LastSyncedAt time.Time
}

// MountRecord notes that a remote was mounted (or a mount was attempted) in this run.
type MountRecord struct {
	Remote     string
	Mountpoint string

	// Submitted is set once the engine accepted the mount job. Only submitted
	// mountpoints are unmounted at the end of a run.
	Submitted bool

	// Failed is set when the mount job could not be submitted or finished
	// unsuccessfully. Items referencing a failed mount fail without resubmitting.
	Failed bool
}
