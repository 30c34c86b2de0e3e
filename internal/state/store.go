package state

import (
	"log"
	"sync"

	"filegrip/internal/eventbus"
	"filegrip/internal/selection"
)

// Store holds the application's current selection. The selection itself is
// immutable; the store replaces it wholesale and bumps a revision each time
// it actually changes, which lets async work detect that it went stale.
type Store struct {
	mu       sync.RWMutex
	current  selection.Selection
	revision uint64
	bus      eventbus.EventBus
}

// NewStore creates a store holding an empty selection
func NewStore(bus eventbus.EventBus) *Store {
	return &Store{
		current: selection.New(),
		bus:     bus,
	}
}

// Current returns the current selection
func (s *Store) Current() selection.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Snapshot returns the current selection together with its revision
func (s *Store) Snapshot() (selection.Selection, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.revision
}

// Revision returns the current revision
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Apply replaces the selection with fn(current). A result structurally equal
// to the current selection is dropped so nothing downstream recomputes.
func (s *Store) Apply(fn func(selection.Selection) selection.Selection) selection.Selection {
	s.mu.Lock()
	next, changed := s.replaceLocked(fn(s.current))
	rev := s.revision
	s.mu.Unlock()

	if changed {
		s.publishChanged(rev, next)
	}
	return next
}

// ApplyIf is Apply guarded by a revision: fn only runs when the store is still
// at rev. It reports whether the guard held.
func (s *Store) ApplyIf(rev uint64, fn func(selection.Selection) selection.Selection) (selection.Selection, bool) {
	return s.ApplyWhen(rev, nil, fn)
}

// ApplyWhen is ApplyIf with an extra guard evaluated under the store lock.
// A false guard leaves the selection and revision untouched.
func (s *Store) ApplyWhen(rev uint64, guard func() bool, fn func(selection.Selection) selection.Selection) (selection.Selection, bool) {
	s.mu.Lock()
	if s.revision != rev || (guard != nil && !guard()) {
		current := s.current
		s.mu.Unlock()
		return current, false
	}
	next, changed := s.replaceLocked(fn(s.current))
	newRev := s.revision
	s.mu.Unlock()

	if changed {
		s.publishChanged(newRev, next)
	}
	return next, true
}

// Reset discards the selection. It always bumps the revision, even when the
// selection was already empty, so in-flight work started before the reset is
// recognised as stale.
func (s *Store) Reset(reason string) {
	s.mu.Lock()
	s.current = selection.New()
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	log.Printf("Selection reset (revision %d): %s", rev, reason)
	if s.bus != nil {
		s.bus.Publish(eventbus.SelectionResetEvent{Revision: rev, Reason: reason})
	}
}

func (s *Store) replaceLocked(next selection.Selection) (selection.Selection, bool) {
	if next.Equals(s.current) {
		return s.current, false
	}
	s.current = next
	s.revision++
	return next, true
}

func (s *Store) publishChanged(rev uint64, next selection.Selection) {
	if s.bus != nil {
		s.bus.Publish(eventbus.SelectionChangedEvent{Revision: rev, Count: next.Count()})
	}
}
