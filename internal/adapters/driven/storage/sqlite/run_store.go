package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// RecordRun stores a finished run. Recording the same run id twice overwrites it.
func (s *runStore) RecordRun(ctx context.Context, rec domain.RunRecord) error {
	if rec.RunID == "" {
		return fmt.Errorf("%w: run id is required", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, started_at, ended_at, completed, skipped, failed, cancelled, dry_run, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			completed = excluded.completed,
			skipped = excluded.skipped,
			failed = excluded.failed,
			cancelled = excluded.cancelled,
			dry_run = excluded.dry_run,
			error = excluded.error
	`,
		rec.RunID,
		toUnixNano(rec.StartedAt),
		toUnixNano(rec.EndedAt),
		rec.Completed,
		rec.Skipped,
		rec.Failed,
		boolToInt(rec.Cancelled),
		boolToInt(rec.DryRun),
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", rec.RunID, err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first. A limit <= 0 returns all.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, started_at, ended_at, completed, skipped, failed, cancelled, dry_run, error
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.RunRecord
		var started, ended int64
		var cancelled, dryRun int
		if err := rows.Scan(&rec.RunID, &started, &ended, &rec.Completed, &rec.Skipped, &rec.Failed,
			&cancelled, &dryRun, &rec.Error); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		rec.StartedAt = fromUnixNano(started)
		rec.EndedAt = fromUnixNano(ended)
		rec.Cancelled = cancelled != 0
		rec.DryRun = dryRun != 0
		runs = append(runs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
