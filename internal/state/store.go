package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/lezoo/keep/internal/resource"
)

// Data is one consistent view of the three collections.
type Data struct {
	Categories []resource.Category
	Notes      []resource.Note
	Tasks      []resource.Task
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Data
	HasData             bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive sync failures
}

// IsOffline returns true when the API has been unreachable for multiple syncs.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the outcome of a sync. A non-nil data replaces the
// collections even when err is set, since managers have already applied
// their failure policy; a nil data keeps the previous collections.
func (s *Store) Update(data *Data, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if data != nil {
		s.snapshot.Data = cloneData(*data)
		s.snapshot.HasData = true
	}
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SetData replaces the collections after a local write without touching the
// sync bookkeeping.
func (s *Store) SetData(data Data) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Data = cloneData(data)
	s.snapshot.HasData = true
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Data = cloneData(s.snapshot.Data)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneData(d Data) Data {
	return Data{
		Categories: cloneSlice(d.Categories),
		Notes:      cloneSlice(d.Notes),
		Tasks:      cloneSlice(d.Tasks),
	}
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
