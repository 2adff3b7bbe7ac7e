package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/calpane/calpane/internal/crypto"
)

// FileStorage persists slots as an encrypted JSON blob under the state dir,
// so a granted session survives a restart. Opt-in; MemoryStorage is the
// default.
type FileStorage struct {
	path      string
	encryptor crypto.Encryptor

	mu    sync.Mutex
	slots map[string]string
}

// NewFileStorage loads any previously persisted slots from dir. A corrupt or
// undecryptable file is discarded, not an error: the user just signs in again.
func NewFileStorage(dir string, encryptor crypto.Encryptor) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	s := &FileStorage{
		path:      filepath.Join(dir, "session.enc"),
		encryptor: encryptor,
		slots:     make(map[string]string),
	}
	s.load()
	return s, nil
}

func (s *FileStorage) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[name]
	return v, ok
}

func (s *FileStorage) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = value
	return s.flush()
}

func (s *FileStorage) Clear(names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		delete(s.slots, n)
	}
	if len(s.slots) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return s.flush()
}

func (s *FileStorage) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	plain, err := s.encryptor.Decrypt(context.Background(), string(raw))
	if err != nil {
		return
	}
	var slots map[string]string
	if err := json.Unmarshal([]byte(plain), &slots); err != nil {
		return
	}
	s.slots = slots
}

func (s *FileStorage) flush() error {
	plain, err := json.Marshal(s.slots)
	if err != nil {
		return fmt.Errorf("failed to marshal session slots: %w", err)
	}
	sealed, err := s.encryptor.Encrypt(context.Background(), string(plain))
	if err != nil {
		return fmt.Errorf("failed to encrypt session slots: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(sealed), 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
