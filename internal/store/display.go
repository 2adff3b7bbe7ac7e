package store

import (
	"sync"

	"github.com/calpane/calpane/internal/model"
)

// DisplayStore owns the local-only view preferences. It shares the
// store/subscription machinery with the synced stores but is not part of
// the cloud config.
type DisplayStore struct {
	mu       sync.RWMutex
	settings model.DisplaySettings

	hub *hub[model.DisplaySettings]
}

// NewDisplayStore creates a store holding the default settings.
func NewDisplayStore() *DisplayStore {
	return &DisplayStore{
		settings: model.DefaultDisplaySettings(),
		hub:      newHub[model.DisplaySettings](),
	}
}

func (s *DisplayStore) Subscribe(fn func(model.DisplaySettings)) func() {
	return s.hub.subscribe(fn)
}

func (s *DisplayStore) Get() model.DisplaySettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Set replaces the settings and publishes to subscribers. Display settings
// never schedule a cloud write: they are not part of the synced config.
func (s *DisplayStore) Set(settings model.DisplaySettings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	s.hub.publish(settings)
}
