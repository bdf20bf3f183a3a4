// Package filesystem provides local filesystem adapters.
//
//   - Inspector implements driven.PathInspector on an afero filesystem
//   - Notifier implements driven.ChangeNotifier with fsnotify
package filesystem
