package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// exampleManifest is written by WriteExampleManifest.
const exampleManifest = `# cloudmirror upload manifest
#
# Each [[uploads]] entry is synced to every remote it lists, in file order.
# Paths may start with ~ and relative paths are resolved against this file.

[[uploads]]
name = "notes"
display_name = "Notes"
source = "~/Documents/notes"
remotes = ["gdrive"]
target_dir = "backup"

# [[uploads]]
# name = "report.pdf"
# source = "~/Desktop/report.pdf"
# remotes = ["gdrive", "b2"]
# target_dir = "backup/reports"

# Remote names are the keys used in uploads.remotes. The backend is the
# rclone remote ("name:" or "name:path") and mountpoint is where it is
# mounted locally during a run.

[remotes.gdrive]
backend = "gdrive:"
mountpoint = "~/cloud/gdrive"

# [remotes.b2]
# backend = "b2:bucket"
# mountpoint = "~/cloud/b2"
`

// ErrManifestExists is returned when the example would overwrite a manifest.
var ErrManifestExists = errors.New("manifest already exists")

// WriteExampleManifest writes a commented example manifest to path.
// An existing file is never overwritten.
func WriteExampleManifest(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrManifestExists, path)
	}
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}

	if _, err := f.WriteString(exampleManifest); err != nil {
		_ = f.Close()
		return fmt.Errorf("write manifest: %w", err)
	}
	return f.Close()
}
