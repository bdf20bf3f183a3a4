package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cloudmirror-cli/internal/logger"
)

// Ensure Notifier implements the interface.
var _ driven.ChangeNotifier = (*Notifier)(nil)

// Notifier reports changes below a set of source paths using fsnotify.
// fsnotify is not recursive, so every directory in a tree is watched and
// directories created later are added as they appear.
type Notifier struct {
	fs afero.Fs
}

// NewNotifier creates a notifier. Directory walks use the OS filesystem.
func NewNotifier() *Notifier {
	return &Notifier{fs: afero.NewOsFs()}
}

// Watch starts watching paths. Each change is reported as the watched root
// it falls under. Missing roots are skipped with a warning.
func (n *Notifier) Watch(ctx context.Context, paths []string) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	roots := make([]string, 0, len(paths))
	for _, root := range paths {
		root = filepath.Clean(root)
		if err := n.addRoot(watcher, root); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("not watching %s: path does not exist", root)
				continue
			}
			if closeErr := watcher.Close(); closeErr != nil {
				logger.WithError(closeErr).Warn("failed to close file watcher")
			}
			return nil, fmt.Errorf("watch %q: %w", root, err)
		}
		roots = append(roots, root)
	}

	out := make(chan string, 16)
	go n.loop(ctx, watcher, roots, out)
	return out, nil
}

// addRoot watches a directory tree, or a file's parent directory.
func (n *Notifier) addRoot(watcher *fsnotify.Watcher, root string) error {
	info, err := n.fs.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		// Watching the parent catches the file being replaced or re-created.
		return watcher.Add(filepath.Dir(root))
	}
	return n.addTree(watcher, root)
}

func (n *Notifier) addTree(watcher *fsnotify.Watcher, dir string) error {
	return afero.Walk(n.fs, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}

func (n *Notifier) loop(ctx context.Context, watcher *fsnotify.Watcher, roots []string, out chan<- string) {
	defer close(out)
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.WithError(err).Warn("failed to close file watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			root, ok := matchRoot(roots, event.Name)
			if !ok {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := n.fs.Stat(event.Name); err == nil && info.IsDir() {
					if err := n.addTree(watcher, event.Name); err != nil {
						logger.Warn("watch new directory %s: %v", event.Name, err)
					}
				}
			}
			logger.Debug("change %s on %s", event.Op, event.Name)
			select {
			case out <- root:
			case <-ctx.Done():
				return
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("file watcher error")
		}
	}
}

// matchRoot returns the watched root that contains path.
func matchRoot(roots []string, path string) (string, bool) {
	for _, root := range roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return root, true
		}
	}
	return "", false
}
