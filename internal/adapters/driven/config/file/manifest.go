package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// Ensure ManifestSource implements the interface.
var _ driven.ManifestSource = (*ManifestSource)(nil)

// DefaultManifestName is the manifest file name inside the config directory.
const DefaultManifestName = "manifest.toml"

// manifestFile is the on-disk layout. Field names are shared by the TOML and
// YAML forms; ghodss/yaml goes through the JSON tags.
type manifestFile struct {
	Uploads []uploadEntry          `toml:"uploads" json:"uploads"`
	Remotes map[string]remoteEntry `toml:"remotes" json:"remotes"`
}

type uploadEntry struct {
	Name        string   `toml:"name" json:"name"`
	Source      string   `toml:"source" json:"source"`
	DisplayName string   `toml:"display_name" json:"display_name,omitempty"`
	Remotes     []string `toml:"remotes" json:"remotes"`
	TargetDir   string   `toml:"target_dir" json:"target_dir,omitempty"`
}

type remoteEntry struct {
	Backend    string `toml:"backend" json:"backend"`
	Mountpoint string `toml:"mountpoint" json:"mountpoint"`
}

// ManifestSource reads the upload manifest from a TOML or YAML file.
// The file is re-read on every call so edits apply to the next run.
type ManifestSource struct {
	path string
}

// NewManifestSource creates a manifest source for path. An empty path uses
// ~/.cloudmirror/manifest.toml. "~" is expanded.
func NewManifestSource(path string) (*ManifestSource, error) {
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("getting config directory: %w", err)
		}
		path = filepath.Join(dir, DefaultManifestName)
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("expand manifest path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	return &ManifestSource{path: abs}, nil
}

// Path returns the manifest file path.
func (m *ManifestSource) Path() string {
	return m.path
}

// Manifest parses the manifest file. A missing file yields ErrNoManifest.
func (m *ManifestSource) Manifest() (*domain.Manifest, error) {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoManifest, m.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", m.path, err)
	}

	parsed, err := decodeManifest(m.path, data)
	if err != nil {
		return nil, &domain.ConfigError{Section: "manifest", Reason: fmt.Sprintf("%s: %v", m.path, err)}
	}

	return parsed.toDomain(filepath.Dir(m.path))
}

// decodeManifest picks the decoder from the file extension. Unknown fields
// are rejected in both formats.
func decodeManifest(path string, data []byte) (*manifestFile, error) {
	var parsed manifestFile

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &parsed, yaml.DisallowUnknownFields); err != nil {
			return nil, err
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&parsed); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, errors.New(strict.String())
			}
			return nil, err
		}
	}

	return &parsed, nil
}

// toDomain converts the file layout, expanding "~" and resolving relative
// paths against baseDir.
func (f *manifestFile) toDomain(baseDir string) (*domain.Manifest, error) {
	manifest := &domain.Manifest{
		Items:   make([]domain.UploadItem, 0, len(f.Uploads)),
		Remotes: make(map[string]domain.RemoteDefinition, len(f.Remotes)),
	}

	for name, r := range f.Remotes {
		mountpoint, err := resolvePath(r.Mountpoint, baseDir)
		if err != nil {
			return nil, &domain.ConfigError{Section: "remotes." + name, Reason: err.Error()}
		}
		manifest.Remotes[name] = domain.RemoteDefinition{
			Name:       name,
			Backend:    strings.TrimSpace(r.Backend),
			Mountpoint: mountpoint,
		}
	}

	for _, u := range f.Uploads {
		source, err := resolvePath(u.Source, baseDir)
		if err != nil {
			return nil, &domain.ConfigError{Section: "uploads." + u.Name, Reason: err.Error()}
		}
		manifest.Items = append(manifest.Items, domain.UploadItem{
			Name:          strings.TrimSpace(u.Name),
			SourcePath:    source,
			DisplayName:   u.DisplayName,
			TargetRemotes: append([]string(nil), u.Remotes...),
			TargetSubdir:  strings.Trim(u.TargetDir, "/"),
		})
	}

	return manifest, nil
}

// resolvePath expands "~" and makes p absolute relative to baseDir.
// An empty path stays empty so validation can report it.
func resolvePath(p, baseDir string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", p, err)
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(baseDir, expanded)
	}
	return filepath.Clean(expanded), nil
}
