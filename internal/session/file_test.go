package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/calpane/calpane/internal/crypto"
)

func TestFileStorage_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	enc := crypto.NewMockEncryptor()

	s, err := NewFileStorage(dir, enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set(SlotAccessToken, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := NewFileStorage(dir, enc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := reopened.Get(SlotAccessToken)
	if !ok || v != "tok" {
		t.Fatalf("expected persisted slot, got %q ok=%v", v, ok)
	}
}

func TestFileStorage_FileIsEncrypted(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, crypto.NewMockEncryptor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Set(SlotAccessToken, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "session.enc"))
	if err != nil {
		t.Fatalf("read session file: %v", err)
	}
	if string(raw[:5]) != "mock:" {
		t.Fatalf("expected content to pass through the encryptor, got %q", raw)
	}
}

func TestFileStorage_CorruptFileIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "session.enc"), []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := NewFileStorage(dir, crypto.NewMockEncryptor())
	if err != nil {
		t.Fatalf("expected corrupt file tolerated, got %v", err)
	}
	if _, ok := s.Get(SlotAccessToken); ok {
		t.Fatal("expected empty storage after discarding corrupt file")
	}
}

func TestFileStorage_ClearRemovesFile(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStorage(dir, crypto.NewMockEncryptor())
	s.Set(SlotAccessToken, "tok")

	if err := s.Clear(SlotAccessToken); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "session.enc")); !os.IsNotExist(err) {
		t.Fatal("expected session file removed once empty")
	}
}
