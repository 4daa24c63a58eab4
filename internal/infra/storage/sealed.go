package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/boddenberg/finance-tracker-go/internal/port"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

// Sealed encrypts values with NaCl secretbox before handing them to the
// underlying store, so the credentials are readable only with this install's key.
type Sealed struct {
	inner port.CredentialStore
	key   [keySize]byte
}

// NewSealed wraps inner with the given key.
func NewSealed(inner port.CredentialStore, key [keySize]byte) *Sealed {
	return &Sealed{inner: inner, key: key}
}

// LoadOrCreateKey reads the key file at path, creating a random one with
// 0600 permissions if it does not exist.
func LoadOrCreateKey(path string) ([keySize]byte, error) {
	var key [keySize]byte

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(raw) != keySize {
			return key, &Error{Op: "key", Path: path, Err: fmt.Errorf("expected %d bytes, got %d", keySize, len(raw))}
		}
		copy(key[:], raw)
		return key, nil
	case !errors.Is(err, os.ErrNotExist):
		return key, &Error{Op: "key", Path: path, Err: err}
	}

	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return key, &Error{Op: "key", Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return key, &Error{Op: "key", Path: path, Err: err}
	}
	if err := os.WriteFile(path, key[:], 0o600); err != nil {
		return key, &Error{Op: "key", Path: path, Err: err}
	}
	return key, nil
}

// Get decrypts the stored value. Values that fail to open are reported as
// absent, since they were written under another key.
func (s *Sealed) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize {
		return "", false, nil
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", false, nil
	}
	return string(plain), true, nil
}

// Set encrypts value under a fresh nonce and stores it.
func (s *Sealed) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(box))
}

// Delete removes keys from the underlying store.
func (s *Sealed) Delete(ctx context.Context, keys ...string) error {
	return s.inner.Delete(ctx, keys...)
}
