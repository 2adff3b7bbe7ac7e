package crypto

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
)

// Encryptor defines the interface for encryption and decryption.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext string) (string, error)
	Decrypt(ctx context.Context, ciphertext string) (string, error)
}

const saltSize = 32

// AESEncryptor implements Encryptor using AES-GCM with a key derived from
// machine-local material, so persisted session state is unreadable when the
// state directory is copied to another machine.
type AESEncryptor struct {
	derivedKey []byte
}

// NewAESEncryptor derives the encryption key from a salt stored in stateDir
// and the user's home path.
func NewAESEncryptor(stateDir string) (*AESEncryptor, error) {
	salt, err := generateOrLoadSalt(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load salt: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home dir: %w", err)
	}

	key := pbkdf2.Key([]byte("calpane:"+home), salt, 100000, 32, sha256.New)
	return &AESEncryptor{derivedKey: key}, nil
}

// Encrypt encrypts the plaintext and returns base64 encoded ciphertext with
// the GCM nonce prepended.
func (e *AESEncryptor) Encrypt(ctx context.Context, plaintext string) (string, error) {
	block, err := aes.NewCipher(e.derivedKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt decrypts base64 encoded ciphertext produced by Encrypt.
func (e *AESEncryptor) Decrypt(ctx context.Context, ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid base64 encoding: %w", err)
	}

	block, err := aes.NewCipher(e.derivedKey)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, sealed := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// generateOrLoadSalt loads the per-install salt, creating it on first use.
func generateOrLoadSalt(stateDir string) ([]byte, error) {
	saltPath := filepath.Join(stateDir, ".salt")

	if salt, err := os.ReadFile(saltPath); err == nil && len(salt) == saltSize {
		return salt, nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	if err := os.WriteFile(saltPath, salt, 0o600); err != nil {
		return nil, fmt.Errorf("failed to persist salt: %w", err)
	}
	return salt, nil
}
