// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TransferEngine: RC calls against the transfer daemon
//   - EngineProcess: Starts and stops the transfer daemon
//   - CacheStore: Change cache persistence
//   - PathInspector: Classifies source paths and reads modification times
//   - Unmounter: Force-unmounts a mountpoint
//   - ManifestSource: Supplies the typed upload manifest
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Run history. Without it, runs are not recorded.
//   - ChangeNotifier: Filesystem change events for watch mode. Without it,
//     the watcher only runs on its interval.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
