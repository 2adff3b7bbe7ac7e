package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCalendarStore_SetDisabled(t *testing.T) {
	s := NewCalendarStore(nil)

	s.SetDisabled("cal-b", true)
	s.SetDisabled("cal-a", true)
	if diff := cmp.Diff([]string{"cal-a", "cal-b"}, s.Get()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if !s.IsDisabled("cal-a") {
		t.Fatal("expected cal-a disabled")
	}

	s.SetDisabled("cal-a", false)
	if s.IsDisabled("cal-a") {
		t.Fatal("expected cal-a enabled again")
	}
}

func TestCalendarStore_SetAllReplaces(t *testing.T) {
	calls := 0
	s := NewCalendarStore(func() { calls++ })

	s.SetDisabled("local", true)
	s.SetAll([]string{"remote-1", "remote-2"})

	if diff := cmp.Diff([]string{"remote-1", "remote-2"}, s.Get()); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if calls != 1 {
		t.Fatalf("SetAll must not fire the mutation callback, got %d calls", calls)
	}
}
