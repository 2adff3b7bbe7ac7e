package store

import (
	"sort"
	"sync"
)

// CalendarStore tracks which of the user's calendars are hidden.
type CalendarStore struct {
	mu       sync.RWMutex
	disabled map[string]bool

	hub      *hub[[]string]
	onMutate func()
}

// NewCalendarStore creates a store with no hidden calendars. onMutate may be
// nil.
func NewCalendarStore(onMutate func()) *CalendarStore {
	return &CalendarStore{
		disabled: make(map[string]bool),
		hub:      newHub[[]string](),
		onMutate: onMutate,
	}
}

func (s *CalendarStore) Subscribe(fn func([]string)) func() {
	return s.hub.subscribe(fn)
}

// Get returns the hidden calendar ids, sorted.
func (s *CalendarStore) Get() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// IsDisabled reports whether the calendar is hidden.
func (s *CalendarStore) IsDisabled(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled[id]
}

// SetDisabled hides or shows a calendar.
func (s *CalendarStore) SetDisabled(id string, disabled bool) {
	s.mu.Lock()
	if disabled {
		s.disabled[id] = true
	} else {
		delete(s.disabled, id)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
}

// SetAll replaces the hidden set from a validated cloud config.
func (s *CalendarStore) SetAll(ids []string) {
	s.mu.Lock()
	s.disabled = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.disabled[id] = true
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, false)
}

func (s *CalendarStore) snapshotLocked() []string {
	out := make([]string, 0, len(s.disabled))
	for id := range s.disabled {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *CalendarStore) notify(snapshot []string, localMutation bool) {
	s.hub.publish(snapshot)
	if localMutation && s.onMutate != nil {
		s.onMutate()
	}
}
