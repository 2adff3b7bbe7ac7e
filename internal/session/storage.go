// Package session persists the provider-issued credential between restarts
// of the auth flow. Storage models a handful of named string slots, the way a
// browser client would use tab-scoped session storage.
package session

import (
	"sync"
)

// Slot names used by the auth manager. They are cleared together on sign-out.
const (
	SlotAccessToken   = "access_token"
	SlotTokenExpiry   = "token_expiry"
	SlotGrantedScopes = "granted_scopes"
)

// Storage is a named-slot string store.
type Storage interface {
	// Get returns the slot value and whether it was set.
	Get(name string) (string, bool)

	// Set stores a value in the named slot.
	Set(name, value string) error

	// Clear removes the named slots. Clearing an absent slot is a no-op.
	Clear(names ...string) error
}

// MemoryStorage keeps slots in process memory. It is the default: session
// state lives and dies with the process, like tab-scoped storage does with
// the tab.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string]string)}
}

func (s *MemoryStorage) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.slots[name]
	return v, ok
}

func (s *MemoryStorage) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = value
	return nil
}

func (s *MemoryStorage) Clear(names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		delete(s.slots, n)
	}
	return nil
}
