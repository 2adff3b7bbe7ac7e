package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/calpane/calpane/internal/model"
)

func TestFilterStore_AddAndRemove(t *testing.T) {
	s := NewFilterStore(nil)

	f, err := s.Add("standup")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ID == "" || f.CreatedAt == 0 {
		t.Fatalf("expected id and timestamp assigned, got %+v", f)
	}

	if err := s.Remove(f.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Get()) != 0 {
		t.Fatal("expected empty store after remove")
	}
	if err := s.Remove(f.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilterStore_RejectsInvalidPatterns(t *testing.T) {
	s := NewFilterStore(nil)

	if _, err := s.Add("   "); err == nil {
		t.Fatal("expected blank pattern rejected")
	}
	if _, err := s.Add(strings.Repeat("x", model.MaxStringLength+1)); err == nil {
		t.Fatal("expected oversized pattern rejected")
	}
}

func TestFilterStore_CapsListLength(t *testing.T) {
	s := NewFilterStore(nil)
	filters := make([]model.Filter, model.MaxFilters)
	for i := range filters {
		filters[i] = model.Filter{ID: "f", Pattern: "x", CreatedAt: 1}
	}
	s.SetAll(filters)

	if _, err := s.Add("one too many"); err == nil {
		t.Fatal("expected the filter cap to reject further adds")
	}
}

func TestFilterStore_MutationCallback(t *testing.T) {
	calls := 0
	s := NewFilterStore(func() { calls++ })

	f, _ := s.Add("standup")
	s.Remove(f.ID)
	if calls != 2 {
		t.Fatalf("expected 2 mutation callbacks, got %d", calls)
	}

	s.SetAll(nil)
	if calls != 2 {
		t.Fatalf("SetAll must not fire the mutation callback, got %d", calls)
	}
}
