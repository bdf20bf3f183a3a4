package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
)

func TestHistoryCmd_ListsRuns(t *testing.T) {
	start := time.Date(2026, 5, 1, 8, 0, 0, 0, time.Local)
	hist := &mockRunHistory{runs: []domain.RunRecord{
		{RunID: "b", StartedAt: start, EndedAt: start.Add(2 * time.Second), Completed: 3, Skipped: 1},
		{RunID: "a", StartedAt: start.Add(-time.Hour), EndedAt: start.Add(-time.Hour), Failed: 1,
			Error: "one or more upload items failed: docs: mount failed"},
		{RunID: "c", StartedAt: start.Add(-2 * time.Hour), DryRun: true},
	}}
	defer withServices(Services{History: hist})()

	out, err := executeCommand("history", "--limit", "5")

	require.NoError(t, err)
	assert.Equal(t, 5, hist.lastLimit)
	assert.Contains(t, out, "2026-05-01 08:00:00")
	assert.Contains(t, out, "2s")
	assert.Contains(t, out, "one or more upload items")
	assert.Contains(t, out, "dry run")
	assert.Len(t, lines(out), 4)
}

func TestHistoryCmd_Empty(t *testing.T) {
	defer withServices(Services{History: &mockRunHistory{}})()

	out, err := executeCommand("history")

	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet.")
}

func TestHistoryCmd_Error(t *testing.T) {
	defer withServices(Services{History: &mockRunHistory{err: errors.New("db locked")}})()

	_, err := executeCommand("history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "db locked")
}

func TestHistoryCmd_ServiceNotConfigured(t *testing.T) {
	defer withServices(Services{})()

	_, err := executeCommand("history")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "history service not configured")
}
