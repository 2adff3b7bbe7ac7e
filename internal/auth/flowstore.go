package auth

import (
	"sync"
	"time"
)

// flowTTL bounds how long an abandoned flow stays registered.
const flowTTL = 5 * time.Minute

// Flow tags name the flow family a state token belongs to.
const (
	tagSignIn = "signin"
	tagScope  = "scope"
)

type pendingFlow struct {
	tag       string
	expiresAt time.Time
}

// flowStore maps CSRF state tokens to pending flow metadata. Multiple flows
// may be pending concurrently, keyed by state, so independent flow families
// cannot interfere with each other.
type flowStore struct {
	mu    sync.Mutex
	flows map[string]pendingFlow
	now   func() time.Time
}

func newFlowStore() *flowStore {
	return &flowStore{
		flows: make(map[string]pendingFlow),
		now:   time.Now,
	}
}

// register stores a pending flow under its state token. Expired entries are
// evicted on every insert; there is no background timer.
func (s *flowStore) register(state, tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, f := range s.flows {
		if now.After(f.expiresAt) {
			delete(s.flows, k)
		}
	}
	s.flows[state] = pendingFlow{tag: tag, expiresAt: now.Add(flowTTL)}
}

// consume removes and returns the tag for state. Returns false for unknown
// or expired states; consumption is exactly-once.
func (s *flowStore) consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[state]
	if !ok {
		return "", false
	}
	delete(s.flows, state)
	if s.now().After(f.expiresAt) {
		return "", false
	}
	return f.tag, true
}

// pendingCount returns the number of live (non-expired) flows.
func (s *flowStore) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for _, f := range s.flows {
		if !now.After(f.expiresAt) {
			n++
		}
	}
	return n
}
