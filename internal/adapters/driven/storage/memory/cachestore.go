package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// Ensure CacheStore implements the interface.
var _ driven.CacheStore = (*CacheStore)(nil)

// CacheStore is an in-memory implementation of driven.CacheStore.
type CacheStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

// NewCacheStore creates a new in-memory cache store.
func NewCacheStore() *CacheStore {
	return &CacheStore{}
}

// Load returns a copy of the stored entries. An empty store yields an empty map.
func (s *CacheStore) Load(_ context.Context) (map[string]domain.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEntries(s.entries), nil
}

// Save replaces the stored entries with a copy of entries.
func (s *CacheStore) Save(_ context.Context, entries map[string]domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = copyEntries(entries)
	return nil
}

func copyEntries(in map[string]domain.CacheEntry) map[string]domain.CacheEntry {
	out := make(map[string]domain.CacheEntry, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
