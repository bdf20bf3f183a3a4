// Package services implements the driving port interfaces.
// Services contain the core sync logic and sequence calls to driven ports
// (adapters).
//
// The main pieces:
//
//   - SyncOrchestrator: runs the per-item state machine in manifest order
//   - ChangeCache: decides which items need syncing and records successes
//   - MountRegistry: mounts each remote at most once per run
//   - JobTracker: submits async engine jobs and polls them to completion
//   - EngineHandle: owns the engine daemon lifecycle for a run
//   - Watcher: re-runs the orchestrator on changes and on an interval
//   - SettingsService, HistoryService: settings and run history
//
// Services are pure Go with no CGO or external service dependencies.
package services
