// Package repository holds the loaded prediction data behind an atomically
// swapped snapshot.
package repository

import (
	"context"
	"time"

	"github.com/okian/pitwall/internal/domain/model"
)

// Snapshot is an immutable view of every loaded artifact. Callers must not
// mutate the slices it holds.
type Snapshot struct {
	ID        string
	Version   uint64
	Season    model.Season
	ErrorRows []model.ErrorRow
	// Dropped counts malformed records skipped while loading, by reason.
	Dropped  map[string]int
	LoadedAt time.Time
}

// Store provides read/write access to the current snapshot.
type Store interface {
	// Current returns the latest snapshot or ErrNoSnapshot before the first publish.
	Current(ctx context.Context) (*Snapshot, error)
	// Publish replaces the current snapshot.
	Publish(ctx context.Context, s *Snapshot) error
}
