package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/okian/pitwall/pkg/metrics"
)

// MemoryStore keeps the current snapshot behind an atomic pointer so reads
// never block a refresh.
type MemoryStore struct {
	snapshot atomic.Pointer[Snapshot]
	version  atomic.Uint64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Current implements Store.Current.
func (s *MemoryStore) Current(_ context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Publish implements Store.Publish. It stamps the snapshot with the next
// version and, when unset, the publish time.
func (s *MemoryStore) Publish(_ context.Context, snap *Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	snap.Version = s.version.Add(1)
	if snap.LoadedAt.IsZero() {
		snap.LoadedAt = time.Now()
	}
	s.snapshot.Store(snap)

	metrics.UpdateSnapshot(len(snap.Season.Races), snap.LoadedAt.Unix())
	return nil
}
