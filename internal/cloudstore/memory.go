package cloudstore

import (
	"context"
	"net/http"
	"sync"
)

// MemoryStore implements Store with an in-process map. It backs tests and
// demo mode, mirroring the remote store's semantics: one file, read and
// written whole, absent-is-not-an-error.
type MemoryStore struct {
	tokens TokenProvider
	online ConnectivityProbe

	mu      sync.RWMutex
	content []byte
	exists  bool

	// FailNext injects a StoreError returned by the next operation.
	FailNext *StoreError
}

// NewMemoryStore creates an empty MemoryStore. tokens and online may be nil,
// in which case every call is treated as authenticated and online.
func NewMemoryStore(tokens TokenProvider, online ConnectivityProbe) *MemoryStore {
	return &MemoryStore{tokens: tokens, online: online}
}

// memoryFileID stands in for the storage id the remote store would assign.
const memoryFileID = "memory"

func (m *MemoryStore) Locate(ctx context.Context) (string, error) {
	if err := m.takeFailure(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.exists {
		return "", nil
	}
	return memoryFileID, nil
}

func (m *MemoryStore) Read(ctx context.Context) ([]byte, error) {
	if err := m.takeFailure(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.exists {
		return nil, nil
	}
	out := make([]byte, len(m.content))
	copy(out, m.content)
	return out, nil
}

func (m *MemoryStore) Write(ctx context.Context, content []byte) error {
	if m.tokens != nil && !m.tokens.Authenticated() {
		return NewStoreError(http.StatusUnauthorized, "not authenticated")
	}
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = make([]byte, len(content))
	copy(m.content, content)
	m.exists = true
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context) error {
	if err := m.takeFailure(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = nil
	m.exists = false
	return nil
}

func (m *MemoryStore) CheckAccess(ctx context.Context) bool {
	if m.online != nil && !m.online() {
		return false
	}
	return m.takeFailure() == nil
}

func (m *MemoryStore) takeFailure() *StoreError {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.FailNext
	m.FailNext = nil
	if err == nil {
		return nil
	}
	return err
}
