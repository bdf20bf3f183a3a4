package driven

import "time"

// PathKind classifies a source path.
type PathKind int

// Path kinds.
const (
	PathMissing PathKind = iota
	PathFile
	PathDir
	PathOther
)

// PathInfo describes a source path at inspection time.
type PathInfo struct {
	Kind PathKind

	// ModTime is the file's modification time, or for directories the
	// newest modification time of anything in the tree.
	ModTime time.Time
}

// PathInspector classifies source paths for the orchestrator.
type PathInspector interface {
	// Inspect returns the kind and modification time of path.
	// A path that does not exist is reported as PathMissing without error.
	Inspect(path string) (PathInfo, error)
}
