// Package credentials persists connection settings in a small YAML file so
// the operator does not retype them.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Keys used by Save and Load.
const (
	KeyURI      = "uri"
	KeyUser     = "user"
	KeyPassword = "password"
)

// Credentials are the saved connection settings.
type Credentials struct {
	URI      string
	User     string
	Password string
}

// Fill completes req from saved. User and password are only taken from saved
// when req names no URI or the same URI, so a secret is never sent to a
// server it was not saved for.
func Fill(req, saved Credentials) Credentials {
	if req.URI != "" && req.URI != saved.URI {
		return req
	}
	return Credentials{
		URI:      saved.URI,
		User:     firstNonEmpty(req.User, saved.User),
		Password: firstNonEmpty(req.Password, saved.Password),
	}
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// FileStore is a string key/value store backed by a YAML file with mode 0600.
// A missing file reads as empty.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store at path. Nothing is touched until a write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Get returns the value for key.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := kv[key]
	return v, ok, nil
}

// Set stores value under key.
func (s *FileStore) Set(key, value string) error {
	return s.update(func(kv map[string]string) { kv[key] = value })
}

// Delete removes key. Deleting a missing key is not an error.
func (s *FileStore) Delete(key string) error {
	return s.update(func(kv map[string]string) { delete(kv, key) })
}

// Save writes all three connection keys at once.
func (s *FileStore) Save(c Credentials) error {
	return s.update(func(kv map[string]string) {
		kv[KeyURI] = c.URI
		kv[KeyUser] = c.User
		kv[KeyPassword] = c.Password
	})
}

// Load returns the saved credentials; ok is false when no URI is stored.
func (s *FileStore) Load() (c Credentials, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read()
	if err != nil {
		return Credentials{}, false, err
	}
	c = Credentials{URI: kv[KeyURI], User: kv[KeyUser], Password: kv[KeyPassword]}
	return c, c.URI != "", nil
}

// Clear removes the file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

func (s *FileStore) update(f func(map[string]string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, err := s.read()
	if err != nil {
		return err
	}
	f(kv)
	return s.write(kv)
}

// read must be called with mu held.
func (s *FileStore) read() (map[string]string, error) {
	kv := make(map[string]string)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := yaml.Unmarshal(data, &kv); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	if kv == nil {
		kv = make(map[string]string)
	}
	return kv, nil
}

// write replaces the file atomically. Must be called with mu held.
func (s *FileStore) write(kv map[string]string) error {
	data, err := yaml.Marshal(kv)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
