package domain

import (
	"errors"
	"fmt"
	"time"
)

// ItemState is a step of the per-item sync state machine.
//
//	New -> Skipped
//	New -> Mounting -> Transferring -> CacheUpdated -> Done
//	any non-terminal state -> Failed
//	New -> Cancelled
type ItemState string

// Item states.
const (
	ItemNew          ItemState = "new"
	ItemSkipped      ItemState = "skipped"
	ItemMounting     ItemState = "mounting"
	ItemTransferring ItemState = "transferring"
	ItemCacheUpdated ItemState = "cache_updated"
	ItemDone         ItemState = "done"
	ItemFailed       ItemState = "failed"
	ItemCancelled    ItemState = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s ItemState) Terminal() bool {
	switch s {
	case ItemSkipped, ItemDone, ItemFailed, ItemCancelled:
		return true
	default:
		return false
	}
}

// ItemResult is the outcome of one upload item in a run.
type ItemResult struct {
	Item  UploadItem
	State ItemState

	// Err is set when State is ItemFailed or ItemCancelled.
	Err error

	// Note is a short human-readable reason for skips.
	Note string

	// Jobs holds every mount and transfer job submitted for the item.
	Jobs []JobResult

	StartedAt time.Time
	EndedAt   time.Time
}

// RunSummary reports what happened to every item in a run.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	DryRun    bool
	Cancelled bool

	Items []ItemResult

	// UnmountFailures lists mountpoints that could not be unmounted.
	UnmountFailures []string
}

// Count returns how many items ended in state.
func (s *RunSummary) Count(state ItemState) int {
	n := 0
	for _, item := range s.Items {
		if item.State == state {
			n++
		}
	}
	return n
}

// Completed returns the number of items synced successfully.
func (s *RunSummary) Completed() int { return s.Count(ItemDone) }

// Skipped returns the number of items that needed no sync.
func (s *RunSummary) Skipped() int { return s.Count(ItemSkipped) }

// Failed returns the number of items that failed.
func (s *RunSummary) Failed() int { return s.Count(ItemFailed) }

// Err returns a non-nil error when any item failed.
// Unmount failures alone never fail a run.
func (s *RunSummary) Err() error {
	var errs []error
	for _, item := range s.Items {
		if item.State == ItemFailed {
			errs = append(errs, fmt.Errorf("%s: %w", item.Item.Name, item.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrItemFailed, errors.Join(errs...))
}

// Record flattens the summary for run history.
func (s *RunSummary) Record() RunRecord {
	rec := RunRecord{
		RunID:     s.RunID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Completed: s.Completed(),
		Skipped:   s.Skipped(),
		Failed:    s.Failed(),
		Cancelled: s.Cancelled,
		DryRun:    s.DryRun,
	}
	if err := s.Err(); err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// RunRecord is the persisted form of a run summary.
type RunRecord struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Completed int
	Skipped   int
	Failed    int
	Cancelled bool
	DryRun    bool
	Error     string
}

// Success reports whether no item failed.
func (r RunRecord) Success() bool {
	return r.Failed == 0
}
