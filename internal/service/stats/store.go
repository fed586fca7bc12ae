// Package stats holds the process-wide detection summary shared between
// streaming sessions and the statistics endpoints.
package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is the result of one completed detection pass.
// A published Snapshot is never modified; Classes must be treated as read-only.
type Snapshot struct {
	Total     int
	Classes   map[string]int
	Alert     bool
	Pass      uint64
	UpdatedAt time.Time
}

// Store publishes Snapshots atomically: readers observe either the previous
// pass or the new one, never a mixture.
type Store struct {
	current atomic.Pointer[Snapshot]

	// mu serializes writers so Pass numbers follow publication order.
	mu   sync.Mutex
	pass uint64
	now  func() time.Time
}

// NewStore returns a Store holding the empty snapshot.
func NewStore() *Store {
	s := &Store{now: time.Now}
	s.current.Store(&Snapshot{Classes: map[string]int{}})
	return s
}

// Load returns the most recently published snapshot without blocking writers.
func (s *Store) Load() Snapshot {
	return *s.current.Load()
}

// Total returns the total count of the most recently published snapshot.
func (s *Store) Total() int {
	return s.current.Load().Total
}

// Publish replaces the current snapshot wholesale. classes is copied, so the
// caller may reuse it; the total is derived from the per-label counts.
func (s *Store) Publish(classes map[string]int, alert bool) Snapshot {
	owned := make(map[string]int, len(classes))
	total := 0
	for label, n := range classes {
		if n <= 0 {
			continue
		}
		owned[label] = n
		total += n
	}

	s.mu.Lock()
	s.pass++
	snap := &Snapshot{
		Total:     total,
		Classes:   owned,
		Alert:     alert,
		Pass:      s.pass,
		UpdatedAt: s.now(),
	}
	s.current.Store(snap)
	s.mu.Unlock()

	return *snap
}
