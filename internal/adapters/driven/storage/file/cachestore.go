package file

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

const cacheFileName = "cache.gob"

// cacheFile is the encoded form. The version field allows the layout to
// change without misreading old files.
type cacheFile struct {
	Version int
	Entries map[string]domain.CacheEntry
}

const cacheFileVersion = 1

// CacheStore persists the change cache as one gob file.
type CacheStore struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

// NewCacheStore creates a cache store in dataDir on the OS filesystem.
// If dataDir is empty, defaults to ~/.cloudmirror/data.
func NewCacheStore(dataDir string) (*CacheStore, error) {
	return NewCacheStoreFs(afero.NewOsFs(), dataDir)
}

// NewCacheStoreFs creates a cache store on the given filesystem.
func NewCacheStoreFs(fs afero.Fs, dataDir string) (*CacheStore, error) {
	if dataDir == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".cloudmirror", "data")
	}
	return &CacheStore{fs: fs, path: filepath.Join(dataDir, cacheFileName)}, nil
}

// Path returns the cache file path.
func (s *CacheStore) Path() string {
	return s.path
}

// Load reads the cache file. A missing file yields an empty map.
func (s *CacheStore) Load(_ context.Context) (map[string]domain.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]domain.CacheEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", s.path, err)
	}

	var decoded cacheFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", s.path, err)
	}
	if decoded.Version != cacheFileVersion {
		return nil, fmt.Errorf("decode cache %s: unsupported version %d", s.path, decoded.Version)
	}
	if decoded.Entries == nil {
		decoded.Entries = make(map[string]domain.CacheEntry)
	}
	return decoded.Entries, nil
}

// Save encodes entries and atomically replaces the cache file.
func (s *CacheStore) Save(ctx context.Context, entries map[string]domain.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cacheFile{Version: cacheFileVersion, Entries: entries}); err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(s.fs, s.path, buf.Bytes())
}

// writeAtomic writes data to a temp file beside path and renames it into place.
func writeAtomic(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := afero.TempFile(fs, dir, ".cloudmirror-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = fs.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := fs.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}
