// Package token holds the current bearer credential for the storefront client.
// The store is the single durable piece of state in the data-access layer: the
// credential survives process restart via a small JSON file under the user
// config directory, mirroring the browser client's localStorage slot.
package token

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	dirName  = "storefront"
	fileName = "token.json"
)

// persisted is the on-disk shape of the stored credential.
type persisted struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// Store is a goroutine-safe holder of the current bearer credential.
// A missing or unwritable config directory degrades the store to
// memory-only operation; it never fails construction.
type Store struct {
	mu    sync.RWMutex
	token string
	path  string // empty means memory-only
}

// NewStore creates a store backed by the default user config location and
// loads any previously persisted credential.
func NewStore() *Store {
	dir, err := os.UserConfigDir()
	if err != nil {
		return &Store{}
	}
	return NewStoreAt(filepath.Join(dir, dirName, fileName))
}

// NewStoreAt creates a store persisting to the given file path. An empty path
// yields a memory-only store.
func NewStoreAt(path string) *Store {
	s := &Store{path: path}
	if path == "" {
		return s
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		s.path = ""
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return s
	}
	s.token = p.Token
	return s
}

// Set persists the credential and makes it visible to all subsequent reads.
func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if s.path == "" {
		return
	}
	data, err := json.Marshal(persisted{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return
	}
	// Persistence failures degrade to memory-only for this write; the
	// in-memory credential stays authoritative either way.
	_ = os.WriteFile(s.path, data, 0o600)
}

// Clear removes the credential. It is idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if s.path != "" {
		_ = os.Remove(s.path)
	}
}

// Current returns the credential and whether one is present.
func (s *Store) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Claims returns a best-effort, unverified view of the stored credential's JWT
// claims. Signature verification belongs to the backend; the client only uses
// the claims as hints (subject, expiry). A credential that is not a parseable
// JWT yields (nil, false) and is still a perfectly valid bearer token.
func (s *Store) Claims() (jwt.MapClaims, bool) {
	tok, ok := s.Current()
	if !ok {
		return nil, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	return claims, ok
}
