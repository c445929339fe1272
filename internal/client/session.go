package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Mujanati13/xcite/internal/auth"
	"github.com/Mujanati13/xcite/internal/table"
)

// SessionStore keeps the client session in a JSON file.
type SessionStore struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, now: time.Now}
}

// WithClock replaces the clock used for expiry checks.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

// Load returns the stored session. A missing file is an empty session.
func (s *SessionStore) Load() (auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return auth.Session{}, nil
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("read session: %w", err)
	}
	var sess auth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return auth.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Start stores a new session for token, issued now.
func (s *SessionStore) Start(token string) (auth.Session, error) {
	sess := auth.NewSession(token, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return auth.Session{}, fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return auth.Session{}, fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return auth.Session{}, fmt.Errorf("write session: %w", err)
	}
	return sess, nil
}

// Clear removes the stored session.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Token returns the stored token, or table.ErrUnauthorized when there is no
// session or it has expired.
func (s *SessionStore) Token() (string, error) {
	sess, err := s.Load()
	if err != nil {
		return "", err
	}
	if auth.IsExpired(sess, s.now()) {
		return "", fmt.Errorf("%w: session expired", table.ErrUnauthorized)
	}
	return sess.Token, nil
}
