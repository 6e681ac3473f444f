package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Identity is the persisted slice of a session: exactly the three fields
// written together on login and cleared together on logout.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"user_name"`
	Role   string `json:"user_role"`
}

// Storage is the persistence mirror behind the in-memory session. Every
// session transition writes through; Load runs once at startup.
type Storage interface {
	Load() (Identity, error)
	Save(Identity) error
	Clear() error
}

// FileStorage keeps the identity in a small JSON file.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Load() (Identity, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Identity{}, nil
		}
		return Identity{}, fmt.Errorf("read session file: %w", err)
	}

	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("parse session file: %w", err)
	}
	return id, nil
}

func (s *FileStorage) Save(id Identity) error {
	data, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStorage) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	mu  sync.Mutex
	id  Identity
	set bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Load() (Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return Identity{}, nil
	}
	return s.id, nil
}

func (s *MemoryStorage) Save(id Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.set = true
	return nil
}

func (s *MemoryStorage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = Identity{}
	s.set = false
	return nil
}
