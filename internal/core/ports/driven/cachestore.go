package driven

import (
	"context"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
)

// CacheStore persists the change cache as a whole.
// Concurrent use of one store by several processes is unsupported.
type CacheStore interface {
	// Load reads every entry. A store that does not exist yet yields an
	// empty map and no error.
	Load(ctx context.Context) (map[string]domain.CacheEntry, error)

	// Save replaces the persisted map with entries. It returns only after
	// the data is durable.
	Save(ctx context.Context, entries map[string]domain.CacheEntry) error
}
