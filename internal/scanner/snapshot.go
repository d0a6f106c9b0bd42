package scanner

import (
	"sync/atomic"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// SnapshotStore holds the current ArbitrageSnapshot behind an atomic pointer.
// The scan loop is the single writer; any number of concurrent readers (HTTP
// handlers, the websocket hub) observe either the previous complete snapshot
// or the new one, never a mix. Snapshots are immutable after publication.
type SnapshotStore struct {
	current atomic.Pointer[domain.ArbitrageSnapshot]
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Load returns the current snapshot, or nil when no scan has published yet.
func (s *SnapshotStore) Load() *domain.ArbitrageSnapshot {
	return s.current.Load()
}

// Store replaces the current snapshot wholesale.
func (s *SnapshotStore) Store(snap *domain.ArbitrageSnapshot) {
	s.current.Store(snap)
}
