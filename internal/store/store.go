package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/batchlens/batchlens/pkg/domain"
)

// Store is a thread-safe holder for the current dataset snapshot.
// Records are never mutated in place; Replace swaps the entire
// snapshot and bumps the revision.
type Store struct {
	mu        sync.RWMutex
	ds        domain.Dataset
	revision  uint64
	updatedAt time.Time
	now       func() time.Time // injectable for deterministic tests
}

// New creates an empty Store. Its revision is 0 until the first Replace.
func New() *Store {
	return &Store{now: time.Now}
}

// Replace publishes ds as the current snapshot and returns the new
// revision. Callers must not modify ds after handing it over.
func (s *Store) Replace(ds domain.Dataset) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = ds
	s.revision++
	s.updatedAt = s.now()

	c := ds.Counts()
	slog.Info("store: snapshot replaced",
		"revision", s.revision,
		"batches", c.Batches,
		"cqa_results", c.CqaResults,
		"ml_outputs", c.MlOutputs,
		"cpp_points", c.CppPoints,
		"bioreactors", c.Bioreactors,
	)
	return s.revision
}

// Snapshot returns the current dataset. The returned value shares
// backing arrays with the stored snapshot; callers must treat it as
// read-only.
func (s *Store) Snapshot() domain.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds
}

// View returns the current snapshot together with its revision, so a
// caller can compute against exactly the version it cached under.
func (s *Store) View() (domain.Dataset, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds, s.revision
}

// Revision returns the current snapshot revision. 0 means no snapshot
// has been published yet.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// UpdatedAt returns when the current snapshot was published. The zero
// time means no snapshot has been published.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
