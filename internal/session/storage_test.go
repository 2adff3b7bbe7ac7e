package session

import "testing"

func TestMemoryStorage_GetSetClear(t *testing.T) {
	s := NewMemoryStorage()

	if _, ok := s.Get(SlotAccessToken); ok {
		t.Fatal("expected empty storage")
	}

	if err := s.Set(SlotAccessToken, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(SlotTokenExpiry, "12345"); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok := s.Get(SlotAccessToken)
	if !ok || v != "tok" {
		t.Fatalf("expected %q, got %q ok=%v", "tok", v, ok)
	}

	if err := s.Clear(SlotAccessToken, SlotTokenExpiry, SlotGrantedScopes); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := s.Get(SlotAccessToken); ok {
		t.Fatal("expected slot cleared")
	}
}
