// Package filestore is the durable credential store backend. The pair is
// written as one encrypted record so a reader can never observe half a pair,
// and Clear removes the same file Save wrote.
package filestore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/vetwell/go-clinic-client/credstore"
	clienterrors "github.com/vetwell/go-clinic-client/internal/errors"
)

const (
	credentialFile = "credentials"
	secretFile     = "device_secret"
)

// record is the plaintext layout of the credential file.
type record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	SavedAt      time.Time `json:"saved_at"`
}

// Store persists the credential pair as a single encrypted file under dir.
// The encryption key is derived from a per-device random secret, so the file
// is only readable on the device that wrote it.
type Store struct {
	mu  sync.Mutex
	dir string
	key []byte
}

var _ credstore.Store = (*Store)(nil)

// New opens (creating if needed) a file store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[filestore.New] MkdirAll")
	}
	secret, err := loadOrCreateSecret(filepath.Join(dir, secretFile))
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.New] device secret")
	}
	key, err := deriveKey(secret)
	if err != nil {
		return nil, errors.Wrap(err, "[filestore.New] derive key")
	}
	return &Store{dir: dir, key: key}, nil
}

// Save writes both tokens as one record. The write goes to a temp file which
// is renamed into place, so concurrent readers see either the old pair or the
// new one, never a mix.
func (s *Store) Save(_ context.Context, pair credstore.Pair) error {
	if err := credstore.ValidatePair(pair); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	plaintext, err := json.Marshal(record{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		SavedAt:      time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "[Store.Save] marshal")
	}

	sealed, err := s.seal(plaintext)
	if err != nil {
		return errors.Wrap(err, "[Store.Save] seal")
	}

	path := filepath.Join(s.dir, credentialFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return errors.Wrap(err, "[Store.Save] write")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, "[Store.Save] rename")
	}
	return nil
}

// Load returns the stored pair, or (nil, nil) when nothing is stored. A file
// that cannot be decrypted or holds half a pair is treated as corrupt.
func (s *Store) Load(_ context.Context) (*credstore.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(filepath.Join(s.dir, credentialFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Load] read")
	}

	plaintext, err := s.open(sealed)
	if err != nil {
		return nil, errors.Wrap(clienterrors.ErrStoreCorrupt, "[Store.Load] decrypt")
	}

	var rec record
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		return nil, errors.Wrap(clienterrors.ErrStoreCorrupt, "[Store.Load] unmarshal")
	}

	pair := credstore.Pair{AccessToken: rec.AccessToken, RefreshToken: rec.RefreshToken}
	if !pair.Complete() {
		return nil, errors.Wrap(clienterrors.ErrPartialCredentials, "[Store.Load] record")
	}
	return &pair, nil
}

// Clear removes the credential file. Removing a file that does not exist is
// not an error. The device secret survives a clear.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(filepath.Join(s.dir, credentialFile))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[Store.Clear] remove")
	}
	return nil
}

func (s *Store) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (s *Store) open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed record too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}

// deriveKey stretches the device secret into an encryption key using
// HKDF-SHA256.
func deriveKey(secret []byte) ([]byte, error) {
	h := hkdf.New(sha256.New, secret, nil, []byte("credential-store"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}
	return key, nil
}

func loadOrCreateSecret(path string) ([]byte, error) {
	secret, err := os.ReadFile(path)
	if err == nil && len(secret) == 32 {
		return secret, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	secret = make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, err
	}
	return secret, nil
}
