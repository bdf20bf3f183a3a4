package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

// Load reads every cache entry. An empty table yields an empty map.
func (s *cacheStore) Load(ctx context.Context) (map[string]domain.CacheEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT source_path, last_synced_at FROM cache_entries`)
	if err != nil {
		return nil, fmt.Errorf("querying cache entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]domain.CacheEntry)
	for rows.Next() {
		var path string
		var syncedAt int64
		if err := rows.Scan(&path, &syncedAt); err != nil {
			return nil, fmt.Errorf("scanning cache entry: %w", err)
		}
		entries[path] = domain.CacheEntry{SourcePath: path, LastSyncedAt: fromUnixNano(syncedAt)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cache entries: %w", err)
	}

	return entries, nil
}

// Save replaces the table contents with entries inside one transaction.
func (s *cacheStore) Save(ctx context.Context, entries map[string]domain.CacheEntry) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clearing cache entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cache_entries (source_path, last_synced_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for path, entry := range entries {
		if _, err := stmt.ExecContext(ctx, path, toUnixNano(entry.LastSyncedAt)); err != nil {
			return fmt.Errorf("inserting cache entry %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache entries: %w", err)
	}
	return nil
}
