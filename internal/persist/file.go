package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore persists state as a JSON file. A missing file is the cold-boot
// signal: deep sleep leaves the file behind, true power loss (or a deliberate
// wipe) does not.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the persisted state. A missing file returns the zero State,
// matching cold-boot semantics.
func (s *FileStore) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("decode state file: %w", err)
	}
	return state, nil
}

// Save writes the state atomically (temp file + rename) so a crash mid-write
// never leaves a corrupt file for the next wake.
func (s *FileStore) Save(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Wipe removes the state file, forcing the next start to be a cold boot.
func (s *FileStore) Wipe() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemStore is an in-memory Store for tests.
type MemStore struct {
	State State

	// LoadError and SaveError, if set, are returned by the respective calls.
	LoadError error
	SaveError error

	// Saves counts Save calls.
	Saves int
}

// Load returns the in-memory state.
func (s *MemStore) Load() (State, error) {
	if s.LoadError != nil {
		return State{}, s.LoadError
	}
	return s.State, nil
}

// Save records the state in memory.
func (s *MemStore) Save(state State) error {
	if s.SaveError != nil {
		return s.SaveError
	}
	s.State = state
	s.Saves++
	return nil
}
