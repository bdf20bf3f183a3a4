package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/cloudmirror-cli/internal/core/domain"
	"github.com/custodia-labs/cloudmirror-cli/internal/core/ports/driving"
)

func TestStatusCmd_ListsItems(t *testing.T) {
	synced := time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)
	orch := &mockSyncOrchestrator{statuses: []driving.ItemStatus{
		{
			Item:  domain.UploadItem{Name: "docs", SourcePath: "/home/u/docs"},
			Entry: &domain.CacheEntry{SourcePath: "/home/u/docs", LastSyncedAt: synced},
		},
		{
			Item:      domain.UploadItem{Name: "photos", SourcePath: "/home/u/photos"},
			NeedsSync: true,
		},
		{
			Item: domain.UploadItem{Name: "gone", SourcePath: "/missing"},
			Err:  errors.New("stat /missing: no such file or directory"),
		},
	}}
	defer withServices(Services{Sync: orch})()

	out, err := executeCommand("status")

	require.NoError(t, err)
	assert.Contains(t, out, "LAST SYNCED")
	assert.Contains(t, out, "2026-03-01 12:00:00")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "error: stat /missing")
}

func TestStatusCmd_NoItems(t *testing.T) {
	defer withServices(Services{Sync: &mockSyncOrchestrator{}})()

	out, err := executeCommand("status")

	require.NoError(t, err)
	assert.Contains(t, out, "No upload items configured.")
}

func TestStatusCmd_Error(t *testing.T) {
	defer withServices(Services{Sync: &mockSyncOrchestrator{stateErr: domain.ErrNoManifest}})()

	_, err := executeCommand("status")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoManifest)
}

func TestLastSynced(t *testing.T) {
	assert.True(t, lastSynced(driving.ItemStatus{}).IsZero())

	at := time.Unix(1700000000, 0)
	assert.Equal(t, at, lastSynced(driving.ItemStatus{Entry: &domain.CacheEntry{LastSyncedAt: at}}))
}
