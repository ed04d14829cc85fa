package api

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore holds the current bearer token, persisted to a file so a new
// process picks the session back up without re-login. The file is read at
// most once per process; Set and Clear write through synchronously.
type TokenStore struct {
	path string

	mu     sync.Mutex
	once   sync.Once
	cached string
}

func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

func (s *TokenStore) Get() string {
	s.once.Do(s.load)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

func (s *TokenStore) Set(token string) error {
	s.once.Do(s.load)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return err
	}
	s.cached = token
	return nil
}

func (s *TokenStore) Clear() error {
	s.once.Do(s.load)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = ""
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *TokenStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.cached = strings.TrimSpace(string(raw))
	s.mu.Unlock()
}
