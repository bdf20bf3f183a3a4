package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// Ensure Inspector implements the interface.
var _ driven.PathInspector = (*Inspector)(nil)

// Inspector classifies source paths and computes their modification times.
type Inspector struct {
	fs afero.Fs
}

// NewInspector creates an inspector on the OS filesystem.
func NewInspector() *Inspector {
	return NewInspectorFs(afero.NewOsFs())
}

// NewInspectorFs creates an inspector on the given filesystem.
func NewInspectorFs(fs afero.Fs) *Inspector {
	return &Inspector{fs: fs}
}

// Inspect returns the kind of path and its modification time. For a
// directory the time is the newest of the directory itself and everything
// below it, so edits deep in the tree mark the whole item changed.
func (i *Inspector) Inspect(path string) (driven.PathInfo, error) {
	info, err := i.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return driven.PathInfo{Kind: driven.PathMissing}, nil
	}
	if err != nil {
		return driven.PathInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}

	switch {
	case info.Mode().IsRegular():
		return driven.PathInfo{Kind: driven.PathFile, ModTime: info.ModTime()}, nil
	case info.IsDir():
		newest, err := i.newestModTime(path, info.ModTime())
		if err != nil {
			return driven.PathInfo{}, err
		}
		return driven.PathInfo{Kind: driven.PathDir, ModTime: newest}, nil
	default:
		return driven.PathInfo{Kind: driven.PathOther, ModTime: info.ModTime()}, nil
	}
}

func (i *Inspector) newestModTime(root string, newest time.Time) (time.Time, error) {
	err := afero.Walk(i.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			// Entries removed mid-walk are ignored.
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("walk %s: %w", path, err)
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return newest, nil
}
