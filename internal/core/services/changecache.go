package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// ChangeCache decides whether a source path needs syncing from the time it
// was last synced successfully. The full map is persisted on every RecordSync
// so an interrupted run keeps the state of the items it completed.
type ChangeCache struct {
	store driven.CacheStore
	clock clockwork.Clock

	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewChangeCache creates a cache over store. A nil clock uses the real clock.
func NewChangeCache(store driven.CacheStore, clock clockwork.Clock) *ChangeCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ChangeCache{
		store:   store,
		clock:   clock,
		entries: make(map[string]domain.CacheEntry),
	}
}

// Load reads the persisted store, replacing any in-memory state.
// A store that does not exist yet yields an empty mapping; it is created by
// the first RecordSync.
func (c *ChangeCache) Load(ctx context.Context) (map[string]domain.CacheEntry, error) {
	entries, err := c.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load change cache: %w", err)
	}
	if entries == nil {
		entries = make(map[string]domain.CacheEntry)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()

	return c.snapshot(), nil
}

// NeedsSync reports whether path has no entry, or was modified strictly
// after it was last synced. Equal or older modification times never trigger.
func (c *ChangeCache) NeedsSync(path string, modTime time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok {
		return true
	}
	return modTime.After(entry.LastSyncedAt)
}

// Exists reports whether path has an entry, regardless of freshness.
func (c *ChangeCache) Exists(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[path]
	return ok
}

// Get returns the entry for path.
func (c *ChangeCache) Get(path string) (domain.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[path]
	return entry, ok
}

// RecordSync upserts {path, now} and persists the whole mapping before
// returning. If persisting fails the previous entry is restored and the
// error returned, so a later run re-uploads path.
func (c *ChangeCache) RecordSync(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, existed := c.entries[path]
	c.entries[path] = domain.CacheEntry{
		SourcePath:   path,
		LastSyncedAt: c.clock.Now(),
	}

	if err := c.store.Save(ctx, c.copyLocked()); err != nil {
		if existed {
			c.entries[path] = prev
		} else {
			delete(c.entries, path)
		}
		return fmt.Errorf("record sync of %s: %w", path, err)
	}
	return nil
}

// Entries returns all entries sorted by path.
func (c *ChangeCache) Entries() []domain.CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.CacheEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourcePath < out[j].SourcePath })
	return out
}

func (c *ChangeCache) snapshot() map[string]domain.CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.copyLocked()
}

// copyLocked copies the map (caller must hold the lock).
func (c *ChangeCache) copyLocked() map[string]domain.CacheEntry {
	out := make(map[string]domain.CacheEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
