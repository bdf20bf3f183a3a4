package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// UploadItem is one configured unit of work: a source file or directory
// plus the remotes it is mirrored to. Items are immutable during a run.
type UploadItem struct {
	// Name identifies the item. File items are copied to TargetSubdir/Name.
	Name string

	// SourcePath is the absolute local path. It is the change cache key.
	SourcePath string

	// DisplayName is shown in summaries. Falls back to Name.
	DisplayName string

	// TargetRemotes is an ordered set of remote names.
	TargetRemotes []string

	// TargetSubdir is the path under each remote that receives the upload.
	TargetSubdir string
}

// Label returns the name used in logs and summaries.
func (i UploadItem) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Name
}

// RemoteDefinition is a named cloud storage backend and its local mountpoint.
type RemoteDefinition struct {
	// Name is the key items use in TargetRemotes.
	Name string

	// Backend is the engine-specific address, e.g. "gdrive:" or "b2:bucket".
	Backend string

	// Mountpoint is the local directory the remote is mounted on.
	Mountpoint string
}

// Address joins the backend with a path below it, yielding "backend:path".
func (r RemoteDefinition) Address(subpath string) string {
	backend := r.Backend
	if !strings.Contains(backend, ":") {
		backend += ":"
	}
	subpath = strings.TrimPrefix(subpath, "/")
	if subpath == "" {
		return backend
	}
	if strings.HasSuffix(backend, ":") {
		return backend + subpath
	}
	return strings.TrimSuffix(backend, "/") + "/" + subpath
}

// Manifest is the typed upload manifest handed to the core by the config layer.
type Manifest struct {
	// Items are processed in declaration order.
	Items []UploadItem

	// Remotes maps remote name to its definition.
	Remotes map[string]RemoteDefinition
}

// Validate checks the manifest sections the orchestrator depends on.
// Target remotes are deduplicated in place, keeping first occurrence order.
func (m *Manifest) Validate() error {
	if len(m.Items) == 0 {
		return &ConfigError{Section: "uploads", Reason: "no upload items declared"}
	}
	if len(m.Remotes) == 0 {
		return &ConfigError{Section: "remotes", Reason: "no remotes declared"}
	}

	for name, remote := range m.Remotes {
		if remote.Backend == "" {
			return &ConfigError{Section: "remotes." + name, Reason: "backend is required"}
		}
		if remote.Mountpoint == "" {
			return &ConfigError{Section: "remotes." + name, Reason: "mountpoint is required"}
		}
	}

	names := make(map[string]bool, len(m.Items))
	sources := make(map[string]string, len(m.Items))
	for idx := range m.Items {
		item := &m.Items[idx]
		section := fmt.Sprintf("uploads[%d]", idx)
		if item.Name == "" {
			return &ConfigError{Section: section, Reason: "name is required"}
		}
		section = "uploads." + item.Name
		if names[item.Name] {
			return &ConfigError{Section: section, Reason: "duplicate item name"}
		}
		names[item.Name] = true

		if item.SourcePath == "" {
			return &ConfigError{Section: section, Reason: "source path is required"}
		}
		if !filepath.IsAbs(item.SourcePath) {
			return &ConfigError{Section: section, Reason: "source path must be absolute"}
		}
		if other, ok := sources[item.SourcePath]; ok {
			return &ConfigError{
				Section: section,
				Reason:  fmt.Sprintf("source path %s already used by %s", item.SourcePath, other),
			}
		}
		sources[item.SourcePath] = item.Name

		item.TargetRemotes = dedupe(item.TargetRemotes)
		if len(item.TargetRemotes) == 0 {
			return &ConfigError{Section: section, Reason: "at least one target remote is required"}
		}
		for _, remote := range item.TargetRemotes {
			if _, ok := m.Remotes[remote]; !ok {
				return &ConfigError{Section: section, Reason: fmt.Sprintf("unknown remote %q", remote)}
			}
		}
	}
	return nil
}

// Remote returns the definition for name.
func (m *Manifest) Remote(name string) (RemoteDefinition, bool) {
	r, ok := m.Remotes[name]
	if ok && r.Name == "" {
		r.Name = name
	}
	return r, ok
}

// Select returns the items whose names are in names, in manifest order.
// An empty names list selects every item.
func (m *Manifest) Select(names []string) ([]UploadItem, error) {
	if len(names) == 0 {
		return m.Items, nil
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []UploadItem
	for _, item := range m.Items {
		if wanted[item.Name] {
			out = append(out, item)
			delete(wanted, item.Name)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for _, n := range names {
			if wanted[n] {
				missing = append(missing, n)
			}
		}
		return nil, fmt.Errorf("%w: unknown upload items %s", ErrNotFound, strings.Join(missing, ", "))
	}
	return out, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
