package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store holds the bearer token for the current session and writes every
// mutation through to a token file so the session survives restarts.
//
// There is a single writer (Login/Logout) and any number of readers. The
// store is passed explicitly to consumers; nothing reads the token file
// behind its back after startup.
type Store struct {
	mu       sync.Mutex
	path     string
	token    string
	watchers []func(token string)
}

// DefaultPath returns the token file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(dir, "parlor", "token"), nil
}

// Open loads the persisted token, if any. A missing file is a valid
// unauthenticated session.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("token path is empty")
	}
	s := &Store{path: path}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		s.token = strings.TrimSpace(string(data))
	case os.IsNotExist(err):
		// fresh session
	default:
		return nil, errors.Wrap(err, "read token file")
	}
	return s, nil
}

// Token returns the current token, or the empty string when logged out.
func (s *Store) Token() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Authenticated reports whether a token is present. The token is opaque;
// no validation of its contents happens client-side.
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Login persists the token and marks the session authenticated. The file
// write happens before watchers observe the new token.
func (s *Store) Login(token string) error {
	if s == nil {
		return errors.New("session store is not initialized")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is empty")
	}
	s.mu.Lock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "create config dir")
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "write token file")
	}
	s.token = token
	watchers := append([]func(string){}, s.watchers...)
	s.mu.Unlock()

	log.Debug().Str("component", "session").Msg("session token stored")
	for _, fn := range watchers {
		fn(token)
	}
	return nil
}

// Logout removes the persisted token and marks the session
// unauthenticated. Logging out of an already logged-out session is a
// no-op.
func (s *Store) Logout() error {
	if s == nil {
		return errors.New("session store is not initialized")
	}
	s.mu.Lock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.mu.Unlock()
		return errors.Wrap(err, "remove token file")
	}
	s.token = ""
	watchers := append([]func(string){}, s.watchers...)
	s.mu.Unlock()

	log.Debug().Str("component", "session").Msg("session token cleared")
	for _, fn := range watchers {
		fn("")
	}
	return nil
}

// Notify registers a watcher invoked synchronously after every mutation
// with the new token ("" on logout). Watchers must not call back into the
// store.
func (s *Store) Notify(fn func(token string)) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}
