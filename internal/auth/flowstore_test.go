package auth

import (
	"testing"
	"time"
)

func TestFlowStore_ConsumeIsExactlyOnce(t *testing.T) {
	s := newFlowStore()
	s.register("state-1", tagSignIn)

	tag, ok := s.consume("state-1")
	if !ok {
		t.Fatal("expected first consume to succeed")
	}
	if tag != tagSignIn {
		t.Fatalf("expected tag %q, got %q", tagSignIn, tag)
	}

	if _, ok := s.consume("state-1"); ok {
		t.Fatal("expected second consume of the same state to fail")
	}
}

func TestFlowStore_UnknownState(t *testing.T) {
	s := newFlowStore()
	if _, ok := s.consume("never-registered"); ok {
		t.Fatal("expected consume of unknown state to fail")
	}
}

func TestFlowStore_ExpiredStateIsRejected(t *testing.T) {
	now := time.Now()
	s := newFlowStore()
	s.now = func() time.Time { return now }

	s.register("state-1", tagScope)

	now = now.Add(flowTTL + time.Second)
	if _, ok := s.consume("state-1"); ok {
		t.Fatal("expected consume of expired state to fail")
	}
}

func TestFlowStore_IndependentFlows(t *testing.T) {
	s := newFlowStore()
	s.register("signin-state", tagSignIn)
	s.register("scope-state", tagScope)

	if got := s.pendingCount(); got != 2 {
		t.Fatalf("expected 2 pending flows, got %d", got)
	}

	tag, ok := s.consume("scope-state")
	if !ok || tag != tagScope {
		t.Fatalf("expected scope flow, got tag=%q ok=%v", tag, ok)
	}

	// Consuming one flow must not disturb the other.
	tag, ok = s.consume("signin-state")
	if !ok || tag != tagSignIn {
		t.Fatalf("expected signin flow still pending, got tag=%q ok=%v", tag, ok)
	}
}

func TestFlowStore_RegisterEvictsExpired(t *testing.T) {
	now := time.Now()
	s := newFlowStore()
	s.now = func() time.Time { return now }

	s.register("old", tagSignIn)
	now = now.Add(flowTTL + time.Second)
	s.register("new", tagSignIn)

	if got := s.pendingCount(); got != 1 {
		t.Fatalf("expected only the fresh flow to remain, got %d", got)
	}
	if _, ok := s.flows["old"]; ok {
		t.Fatal("expected expired entry to be evicted on insert")
	}
}
