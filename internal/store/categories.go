package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/calpane/calpane/internal/cloudconfig"
	"github.com/calpane/calpane/internal/model"
)

// ErrNameTaken is returned when a category label collides with an existing
// one, compared case-insensitively.
var ErrNameTaken = errors.New("category name already exists")

// ErrNotFound is returned when an id names no known entry.
var ErrNotFound = errors.New("not found")

// CategoryStore owns the built-in and user-created categories.
type CategoryStore struct {
	mu              sync.RWMutex
	custom          []model.Category
	disabledBuiltIn map[string]bool

	hub      *hub[[]model.Category]
	onMutate func()
	now      func() time.Time
}

// NewCategoryStore creates a store with the built-in set enabled and no
// custom categories. onMutate is invoked after every local mutation (not
// after SetAll, which is the cloud-sync entry point); it may be nil.
func NewCategoryStore(onMutate func()) *CategoryStore {
	return &CategoryStore{
		disabledBuiltIn: make(map[string]bool),
		hub:             newHub[[]model.Category](),
		onMutate:        onMutate,
		now:             time.Now,
	}
}

// Subscribe registers fn to be called with the full category list on every
// change. Returns an unsubscribe func.
func (s *CategoryStore) Subscribe(fn func([]model.Category)) func() {
	return s.hub.subscribe(fn)
}

// Get returns built-in categories (minus disabled ones) followed by custom
// categories.
func (s *CategoryStore) Get() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Custom returns only the user-created categories.
func (s *CategoryStore) Custom() []model.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Category, len(s.custom))
	copy(out, s.custom)
	return out
}

// DisabledBuiltIn returns the ids of disabled built-in categories, sorted.
func (s *CategoryStore) DisabledBuiltIn() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.disabledBuiltIn))
	for id := range s.disabledBuiltIn {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Add creates a custom category. The label must be unique across built-in
// and custom categories, compared case-insensitively; keywords are
// deduplicated the same way, keeping first-seen casing and order.
func (s *CategoryStore) Add(label, color string, keywords []string, mode model.MatchMode) (model.Category, error) {
	var zero model.Category
	if !cloudconfig.ValidLabel(label) {
		return zero, fmt.Errorf("invalid label %q", label)
	}
	if !cloudconfig.ValidColor(color) {
		return zero, fmt.Errorf("invalid color %q", color)
	}
	if mode != model.MatchAny && mode != model.MatchAll {
		return zero, fmt.Errorf("invalid match mode %q", mode)
	}

	s.mu.Lock()
	if s.labelTakenLocked(label, "") {
		s.mu.Unlock()
		return zero, ErrNameTaken
	}
	now := float64(s.now().UnixMilli())
	c := model.Category{
		ID:        model.CustomIDPrefix + uuid.NewString(),
		Label:     label,
		Color:     color,
		Keywords:  cloudconfig.DedupeKeywords(keywords),
		MatchMode: mode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.custom = append(s.custom, c)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
	return c, nil
}

// Update modifies a custom category in place.
func (s *CategoryStore) Update(id, label, color string, keywords []string, mode model.MatchMode) (model.Category, error) {
	var zero model.Category
	if !cloudconfig.ValidLabel(label) {
		return zero, fmt.Errorf("invalid label %q", label)
	}
	if !cloudconfig.ValidColor(color) {
		return zero, fmt.Errorf("invalid color %q", color)
	}
	if mode != model.MatchAny && mode != model.MatchAll {
		return zero, fmt.Errorf("invalid match mode %q", mode)
	}

	s.mu.Lock()
	idx := -1
	for i, c := range s.custom {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return zero, ErrNotFound
	}
	if s.labelTakenLocked(label, id) {
		s.mu.Unlock()
		return zero, ErrNameTaken
	}
	c := s.custom[idx]
	c.Label = label
	c.Color = color
	c.Keywords = cloudconfig.DedupeKeywords(keywords)
	c.MatchMode = mode
	c.UpdatedAt = float64(s.now().UnixMilli())
	s.custom[idx] = c
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
	return c, nil
}

// Remove deletes a custom category, or disables a built-in one.
func (s *CategoryStore) Remove(id string) error {
	s.mu.Lock()
	if model.IsBuiltInCategoryID(id) {
		s.disabledBuiltIn[id] = true
	} else {
		idx := -1
		for i, c := range s.custom {
			if c.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			s.mu.Unlock()
			return ErrNotFound
		}
		s.custom = append(s.custom[:idx], s.custom[idx+1:]...)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
	return nil
}

// RestoreDefault re-enables a disabled built-in category.
func (s *CategoryStore) RestoreDefault(id string) error {
	if !model.IsBuiltInCategoryID(id) {
		return ErrNotFound
	}
	s.mu.Lock()
	delete(s.disabledBuiltIn, id)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
	return nil
}

// ResetToDefaults removes all custom categories and re-enables every
// built-in one.
func (s *CategoryStore) ResetToDefaults() {
	s.mu.Lock()
	s.custom = nil
	s.disabledBuiltIn = make(map[string]bool)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, true)
}

// SetAll replaces the custom categories and disabled-built-in set from a
// validated cloud config. Entries whose label matches a built-in label are
// dropped, and entries with the same label (case-insensitive) are
// deduplicated, keeping the one with the greatest UpdatedAt. Does not
// schedule a cloud write: this is how cloud-sourced state arrives.
func (s *CategoryStore) SetAll(custom []model.Category, disabledBuiltIn []string) {
	s.mu.Lock()
	s.custom = dedupeByLabel(dropReservedLabels(custom))
	s.disabledBuiltIn = make(map[string]bool, len(disabledBuiltIn))
	for _, id := range disabledBuiltIn {
		if model.IsBuiltInCategoryID(id) {
			s.disabledBuiltIn[id] = true
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, false)
}

func (s *CategoryStore) snapshotLocked() []model.Category {
	out := make([]model.Category, 0, len(s.custom)+5)
	for _, c := range model.DefaultCategories() {
		if !s.disabledBuiltIn[c.ID] {
			out = append(out, c)
		}
	}
	out = append(out, s.custom...)
	return out
}

func (s *CategoryStore) labelTakenLocked(label, excludeID string) bool {
	lower := strings.ToLower(label)
	for _, c := range model.DefaultCategories() {
		if strings.ToLower(c.Label) == lower {
			return true
		}
	}
	for _, c := range s.custom {
		if c.ID != excludeID && strings.ToLower(c.Label) == lower {
			return true
		}
	}
	return false
}

func (s *CategoryStore) notify(snapshot []model.Category, localMutation bool) {
	s.hub.publish(snapshot)
	if localMutation && s.onMutate != nil {
		s.onMutate()
	}
}

// dropReservedLabels removes categories whose label matches a built-in
// label (case-insensitive). Built-in labels stay reserved while the
// built-in is disabled, the same rule Add applies.
func dropReservedLabels(categories []model.Category) []model.Category {
	reserved := make(map[string]bool, 5)
	for _, c := range model.DefaultCategories() {
		reserved[strings.ToLower(c.Label)] = true
	}
	out := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		if reserved[strings.ToLower(c.Label)] {
			continue
		}
		out = append(out, c)
	}
	return out
}

// dedupeByLabel keeps one category per case-insensitive label, preferring
// the greatest UpdatedAt and keeping first-seen order otherwise.
func dedupeByLabel(categories []model.Category) []model.Category {
	byLabel := make(map[string]int, len(categories))
	out := make([]model.Category, 0, len(categories))
	for _, c := range categories {
		key := strings.ToLower(c.Label)
		if i, seen := byLabel[key]; seen {
			if c.UpdatedAt > out[i].UpdatedAt {
				out[i] = c
			}
			continue
		}
		byLabel[key] = len(out)
		out = append(out, c)
	}
	return out
}
