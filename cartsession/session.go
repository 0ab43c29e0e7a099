package cartsession

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// SessionStore keeps the anonymous session id on the client between runs.
type SessionStore interface {
	Load() (string, bool, error)
	Save(id string) error
	Clear() error
}

// EnsureSessionID returns the stored session id, generating and saving a new
// one on first use.
func EnsureSessionID(s SessionStore) (string, error) {
	id, ok, err := s.Load()
	if err != nil {
		return "", err
	}
	if ok {
		return id, nil
	}

	id = uuid.NewString()
	if err := s.Save(id); err != nil {
		return "", err
	}
	return id, nil
}

type MemorySessionStore struct {
	mu sync.Mutex
	id string
}

func (m *MemorySessionStore) Load() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, m.id != "", nil
}

func (m *MemorySessionStore) Save(id string) error {
	m.mu.Lock()
	m.id = id
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Clear() error {
	return m.Save("")
}

// FileSessionStore persists the session id as a small JSON document.
type FileSessionStore struct {
	Path string
	mu   sync.Mutex
}

type sessionFile struct {
	SessionID string `json:"sessionId"`
}

func (f *FileSessionStore) Load() (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read session file: %w", err)
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return "", false, fmt.Errorf("parse session file: %w", err)
	}
	return sf.SessionID, sf.SessionID != "", nil
}

func (f *FileSessionStore) Save(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.Marshal(sessionFile{SessionID: id})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o600)
}

func (f *FileSessionStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
