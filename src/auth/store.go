// Package auth holds the registered-user session: a small persisted store
// plus the registration and logout flows around it.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"loopy-client/src/api"
	"loopy-client/src/logger"
)

type persistedAuth struct {
	User         *api.User `json:"user"`
	IsRegistered bool      `json:"isRegistered"`
}

// Store persists the session identity across restarts and is cleared in
// full on logout.
type Store struct {
	mu    sync.RWMutex
	path  string
	log   *logger.Logger
	state persistedAuth
}

func NewStore(path string, log *logger.Logger) *Store {
	s := &Store{path: path, log: log}

	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	if err := json.Unmarshal(raw, &s.state); err != nil {
		log.Warnf("discarding unreadable auth state at %s: %v", path, err)
		s.state = persistedAuth{}
	}
	return s
}

func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

func (s *Store) IsRegistered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsRegistered
}

func (s *Store) SetUser(user *api.User) {
	s.mu.Lock()
	s.state.User = user
	s.state.IsRegistered = user != nil
	s.mu.Unlock()
	s.persist()
}

func (s *Store) persist() {
	s.mu.RLock()
	raw, err := json.Marshal(s.state)
	path := s.path
	s.mu.RUnlock()
	if err != nil {
		s.log.Errorf(err, "marshalling auth state")
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		s.log.Errorf(err, "creating auth directory")
		return
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		s.log.Errorf(err, "persisting auth state")
	}
}

// Wipe clears the session and deletes the persisted file.
func (s *Store) Wipe() error {
	s.mu.Lock()
	s.state = persistedAuth{}
	path := s.path
	s.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
