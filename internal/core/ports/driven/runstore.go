package driven

import (
	"context"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
)

// RunStore persists run history.
type RunStore interface {
	// RecordRun stores a finished run.
	RecordRun(ctx context.Context, rec domain.RunRecord) error

	// ListRuns returns recent runs, most recent first.
	ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}
