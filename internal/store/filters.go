package store

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calpane/calpane/internal/model"
)

// FilterStore owns the title filters that hide events.
type FilterStore struct {
	mu      sync.RWMutex
	filters []model.Filter

	hub      *hub[[]model.Filter]
	onMutate func()
	now      func() time.Time
}

// NewFilterStore creates an empty FilterStore. onMutate may be nil.
func NewFilterStore(onMutate func()) *FilterStore {
	return &FilterStore{
		hub:      newHub[[]model.Filter](),
		onMutate: onMutate,
		now:      time.Now,
	}
}

func (s *FilterStore) Subscribe(fn func([]model.Filter)) func() {
	return s.hub.subscribe(fn)
}

func (s *FilterStore) Get() []model.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

// Add creates a filter for pattern. The pattern must be non-empty after
// trimming and within the length limit; the list is capped.
func (s *FilterStore) Add(pattern string) (model.Filter, error) {
	var zero model.Filter
	if strings.TrimSpace(pattern) == "" || len(pattern) > model.MaxStringLength {
		return zero, fmt.Errorf("invalid filter pattern")
	}

	s.mu.Lock()
	if len(s.filters) >= model.MaxFilters {
		s.mu.Unlock()
		return zero, fmt.Errorf("filter limit reached")
	}
	f := model.Filter{
		ID:        uuid.NewString(),
		Pattern:   pattern,
		CreatedAt: float64(s.now().UnixMilli()),
	}
	s.filters = append(s.filters, f)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
	return f, nil
}

// Remove deletes the filter with the given id.
func (s *FilterStore) Remove(id string) error {
	s.mu.Lock()
	idx := -1
	for i, f := range s.filters {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}
	s.filters = append(s.filters[:idx], s.filters[idx+1:]...)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
	return nil
}

// SetAll replaces the filter list from a validated cloud config.
func (s *FilterStore) SetAll(filters []model.Filter) {
	s.mu.Lock()
	s.filters = make([]model.Filter, len(filters))
	copy(s.filters, filters)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, false)
}

func (s *FilterStore) snapshotLocked() []model.Filter {
	out := make([]model.Filter, len(s.filters))
	copy(out, s.filters)
	return out
}

func (s *FilterStore) notify(snapshot []model.Filter, localMutation bool) {
	s.hub.publish(snapshot)
	if localMutation && s.onMutate != nil {
		s.onMutate()
	}
}
