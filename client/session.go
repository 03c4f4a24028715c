package client

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/taskdeck/backend/domain"
)

// SessionStore keeps the current user and token in memory plus a durable
// token slot on disk. Only the token survives a restart: a stored token is
// treated as provisionally valid until the first API call proves otherwise.
type SessionStore struct {
	path  string
	token string
	user  *domain.User
}

// NewSessionStore loads any previously stored token from path.
func NewSessionStore(path string) (*SessionStore, error) {
	s := &SessionStore{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	s.token = strings.TrimSpace(string(data))
	return s, nil
}

// Token returns the current bearer token, or "" when logged out.
func (s *SessionStore) Token() string {
	return s.token
}

// User returns the in-memory user, nil after a restart until the next
// authenticated call fills it in.
func (s *SessionStore) User() *domain.User {
	return s.user
}

// SetUser caches the user for the current process only.
func (s *SessionStore) SetUser(user *domain.User) {
	s.user = user
}

// Authenticated reports whether a token is present. The token may still be
// rejected by the server; callers handle that as a forced logout.
func (s *SessionStore) Authenticated() bool {
	return s.token != ""
}

// Save stores the user in memory and persists only the token.
func (s *SessionStore) Save(user *domain.User, token string) error {
	s.user = user
	s.token = token

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token+"\n"), 0o600)
}

// Clear drops the in-memory state and removes the durable slot.
func (s *SessionStore) Clear() error {
	s.user = nil
	s.token = ""

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
