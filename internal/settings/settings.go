// Package settings persists agtool's key/value state (default username and
// per-user token/password/expires) as a single JSON object on disk.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName   = "agtool" // directory name under os.UserConfigDir
	settingsName = "agtool.json"
)

// Keys recognized in the settings file. Per-user keys are prefixed with the
// username and an underscore, e.g. "alice_token".
const (
	KeyDefaultUsername = "default_username"
	KeyToken           = "token"
	KeyPassword        = "password"
	KeyExpires         = "expires"
)

func DefaultPath() (string, error) {
	d, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	if d == "" {
		return "", errors.New("os.UserConfigDir() returned empty string")
	}
	return filepath.Join(d, appDirName, settingsName), nil
}

// Store is the in-memory mirror of the settings file. Every mutation writes
// the whole file back synchronously; equal-value writes are no-ops.
type Store struct {
	path   string
	values map[string]any
}

// Load reads the settings file at path. A missing file or directory yields an
// empty store, not an error.
func Load(path string) (*Store, error) {
	s := &Store{path: path, values: map[string]any{}}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(b) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s.values); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(key, def string) string {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func (s *Store) GetInt64(key string, def int64) int64 {
	v, ok := s.values[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return int64(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return def
		}
		return n
	case string:
		var n int64
		if _, err := fmt.Sscan(t, &n); err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

func (s *Store) Set(key string, value any) error {
	if old, ok := s.values[key]; ok && old == value {
		return nil
	}
	s.values[key] = value
	return s.save()
}

func (s *Store) Remove(key string) error {
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

func (s *Store) save() error {
	if s.path == "" {
		return errors.New("settings path is empty")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	// encoding/json writes map keys sorted, which keeps the file diffable.
	b, err := json.MarshalIndent(s.values, "", "    ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	// Windows can't replace existing files via rename.
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(s.path)
		if err2 := os.Rename(tmp, s.path); err2 != nil {
			_ = os.Remove(tmp)
			return err2
		}
	}
	return nil
}

// userKey joins a username and a base key. An empty username falls back to
// the stored default.
func (s *Store) userKey(username, key string) string {
	if username == "" {
		username = s.DefaultUsername()
	}
	return username + "_" + key
}

func (s *Store) UserGet(username, key, def string) string {
	return s.Get(s.userKey(username, key), def)
}

func (s *Store) UserGetInt64(username, key string, def int64) int64 {
	return s.GetInt64(s.userKey(username, key), def)
}

func (s *Store) UserSet(username, key string, value any) error {
	return s.Set(s.userKey(username, key), value)
}

func (s *Store) UserRemove(username, key string) error {
	return s.Remove(s.userKey(username, key))
}

func (s *Store) DefaultUsername() string {
	return s.Get(KeyDefaultUsername, "")
}

func (s *Store) SetDefaultUsername(username string) error {
	return s.Set(KeyDefaultUsername, username)
}

func (s *Store) Token(username string) string {
	return s.UserGet(username, KeyToken, "")
}

func (s *Store) SetToken(username, token string) error {
	return s.UserSet(username, KeyToken, token)
}

func (s *Store) RemoveToken(username string) error {
	return s.UserRemove(username, KeyToken)
}

func (s *Store) Expires(username string) int64 {
	return s.UserGetInt64(username, KeyExpires, 0)
}

func (s *Store) SetExpires(username string, expires int64) error {
	return s.UserSet(username, KeyExpires, expires)
}

func (s *Store) RemoveExpires(username string) error {
	return s.UserRemove(username, KeyExpires)
}

func (s *Store) Password(username string) string {
	return s.UserGet(username, KeyPassword, "")
}

func (s *Store) SetPassword(username, password string) error {
	return s.UserSet(username, KeyPassword, password)
}

func (s *Store) RemovePassword(username string) error {
	return s.UserRemove(username, KeyPassword)
}
