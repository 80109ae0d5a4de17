// Package checkpoint persists classification-run progress so an
// interrupted run resumes at the first unprocessed batch. A checkpoint
// is a progress descriptor plus one snapshot per result bucket; the
// pair is only trusted when every referenced snapshot is present and
// consistent with the descriptor's counts.
package checkpoint

import (
	"context"
	"time"

	"github.com/paperlit/screener-cli/internal/model"
)

// State is the progress descriptor for one stage run.
type State struct {
	Stage            string         `json:"stage"`
	TotalBatches     int            `json:"total_batches"`
	ProcessedBatches int            `json:"processed_batches"`
	Timestamp        time.Time      `json:"timestamp"`
	BucketCounts     map[string]int `json:"bucket_counts"`
}

// Buckets holds the accumulated outcomes per bucket name. Lists are
// ordered and append-only for the lifetime of a run.
type Buckets map[string][]model.Outcome

// Counts returns the per-bucket lengths.
func (b Buckets) Counts() map[string]int {
	counts := make(map[string]int, len(b))
	for name, outcomes := range b {
		counts[name] = len(outcomes)
	}
	return counts
}

// Store persists run progress. Implementations must guarantee that
// after Save, a fresh Load (as after a process restart) returns the
// same processed-batch count and bucket contents.
type Store interface {
	// Load reads prior progress. found is false when no usable
	// checkpoint exists: absent, unreadable, or referencing a missing
	// or inconsistent bucket snapshot. None of those are errors; the
	// run simply starts fresh.
	Load(ctx context.Context) (found bool, state *State, buckets Buckets, err error)

	// Save fully overwrites the checkpoint with the given state and
	// bucket contents. A crash mid-save leaves at worst the previous
	// valid checkpoint.
	Save(ctx context.Context, state *State, buckets Buckets) error

	// Finalize writes each bucket to its permanent destination path and
	// deletes all checkpoint artifacts. This is the single commit point
	// after which no resume is possible or needed.
	Finalize(ctx context.Context, buckets Buckets, destinations map[string]string) error

	// Reset discards any existing checkpoint so the next run starts at
	// batch zero.
	Reset(ctx context.Context) error
}

// consistent reports whether the loaded buckets match the descriptor's
// per-bucket counts exactly.
func consistent(state *State, buckets Buckets) bool {
	if len(state.BucketCounts) != len(buckets) {
		return false
	}
	for name, want := range state.BucketCounts {
		if len(buckets[name]) != want {
			return false
		}
	}
	return true
}
