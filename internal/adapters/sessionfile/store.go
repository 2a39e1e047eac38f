// Package sessionfile persists the portal session in the user's data
// directory under the same three keys the web portal keeps in local storage:
// the user blob as JSON, the token as an opaque string, and the role string.
package sessionfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/supa-modo/digiplotClassic/internal/domain"
	"github.com/supa-modo/digiplotClassic/internal/ports"
)

// Key names are part of the on-disk contract. They must stay stable across
// versions or existing sessions are orphaned.
const (
	userKey  = "digiplot_user.json"
	tokenKey = "digiplot_token"
	roleKey  = "digiplot_role"
)

// Store is a file-backed ports.SessionStore rooted at a directory.
type Store struct {
	dir string
}

// New creates the store, making the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("sessionfile: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("sessionfile: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save writes all three keys. Each write is atomic (temp file + rename) and
// the token is written last, so a crash mid-save can only ever leave token
// absent, a state Load already treats as logged-out.
func (s *Store) Save(session ports.StoredSession) error {
	raw, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("sessionfile: encode user: %w", err)
	}
	if err := s.writeKey(userKey, raw); err != nil {
		return err
	}
	if err := s.writeKey(roleKey, []byte(session.Role)); err != nil {
		return err
	}
	return s.writeKey(tokenKey, []byte(session.Token))
}

// Load reads the persisted session. Missing keys read as no session. A user
// blob that fails to deserialize self-heals: all three keys are cleared so no
// corrupt state survives, and the caller sees logged-out.
func (s *Store) Load() (*ports.StoredSession, error) {
	rawUser, okUser, err := s.readKey(userKey)
	if err != nil {
		return nil, err
	}
	rawToken, okToken, err := s.readKey(tokenKey)
	if err != nil {
		return nil, err
	}
	rawRole, okRole, err := s.readKey(roleKey)
	if err != nil {
		return nil, err
	}
	if !okUser || !okToken || !okRole {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal(rawUser, &user); err != nil {
		if clearErr := s.Clear(); clearErr != nil {
			return nil, fmt.Errorf("sessionfile: clear after corrupt user blob: %w", clearErr)
		}
		return nil, nil
	}

	return &ports.StoredSession{
		User:  user,
		Token: strings.TrimSpace(string(rawToken)),
		Role:  domain.Role(strings.TrimSpace(string(rawRole))),
	}, nil
}

// Clear removes all three keys. Missing keys are fine; Clear is idempotent.
func (s *Store) Clear() error {
	var firstErr error
	for _, key := range []string{userKey, tokenKey, roleKey} {
		if err := os.Remove(filepath.Join(s.dir, key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = fmt.Errorf("sessionfile: remove %s: %w", key, err)
			}
		}
	}
	return firstErr
}

func (s *Store) writeKey(key string, value []byte) error {
	target := filepath.Join(s.dir, key)
	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("sessionfile: temp for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sessionfile: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("sessionfile: close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("sessionfile: rename %s: %w", key, err)
	}
	return nil
}

func (s *Store) readKey(key string) ([]byte, bool, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sessionfile: read %s: %w", key, err)
	}
	return raw, true, nil
}
