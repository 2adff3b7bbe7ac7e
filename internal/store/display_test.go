package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calpane/calpane/internal/model"
)

func TestDisplayStore_Defaults(t *testing.T) {
	s := NewDisplayStore()
	if diff := cmp.Diff(model.DefaultDisplaySettings(), s.Get()); diff != "" {
		t.Fatalf("unexpected defaults (-want +got):\n%s", diff)
	}
}

func TestDisplayStore_SetPublishes(t *testing.T) {
	s := NewDisplayStore()

	var last model.DisplaySettings
	calls := 0
	unsubscribe := s.Subscribe(func(d model.DisplaySettings) {
		last = d
		calls++
	})

	want := s.Get()
	want.ShowWeekends = !want.ShowWeekends
	s.Set(want)

	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	if diff := cmp.Diff(want, last); diff != "" {
		t.Fatalf("unexpected published settings (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, s.Get()); diff != "" {
		t.Fatalf("unexpected stored settings (-want +got):\n%s", diff)
	}

	unsubscribe()
	s.Set(model.DefaultDisplaySettings())
	if calls != 1 {
		t.Fatal("expected no notification after unsubscribe")
	}
}
