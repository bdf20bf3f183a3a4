// Package domain defines the core entities of cloudmirror.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - UploadItem: A source path mirrored to one or more remotes
//   - RemoteDefinition: A named backend with a local mountpoint
//   - CacheEntry: When a source path was last synced
//   - Job: An asynchronous engine operation and its outcome
//   - RunSummary: The per-item results of an orchestrator run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
