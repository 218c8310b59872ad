package portresolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PortStore persists the last port that answered a liveness probe.
type PortStore interface {
	Get() (int, bool)
	Set(port int) error
	Delete() error
}

// MemoryStore keeps the cached port in memory for the life of the process.
type MemoryStore struct {
	mu   sync.Mutex
	port int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port, s.port > 0
}

func (s *MemoryStore) Set(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = port
	return nil
}

func (s *MemoryStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = 0
	return nil
}

// FileStore keeps the cached port in a small JSON state file so it survives
// between CLI invocations.
type FileStore struct {
	Path string
	mu   sync.Mutex
}

type storedPort struct {
	ServerPort int `json:"serverPort"`
}

// DefaultStatePath returns <user cache dir>/docpost/state.json.
func DefaultStatePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache dir: %w", err)
	}
	return filepath.Join(dir, "docpost", "state.json"), nil
}

// NewFileStore creates a store backed by path. The file is created lazily.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Get() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return 0, false
	}
	var sp storedPort
	if err := json.Unmarshal(data, &sp); err != nil || sp.ServerPort <= 0 {
		return 0, false
	}
	return sp.ServerPort, true
}

func (s *FileStore) Set(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	data, err := json.Marshal(storedPort{ServerPort: port})
	if err != nil {
		return err
	}
	// Write to a temp file and rename so a crash never leaves half a file.
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return os.Rename(tmp, s.Path)
}

func (s *FileStore) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
