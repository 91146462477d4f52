package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultPath is where the registry document lives unless configured
// otherwise, relative to the working directory.
const DefaultPath = ".devserv/registry.json"

// State is the full persisted registry document. The on-disk copy is the
// sole durability guarantee; in-memory state never survives a controller
// restart.
type State struct {
	ManagedProcesses map[string]ProcessConfig `json:"managedProcesses"`
	LastSynced       string                   `json:"lastSynced,omitempty"`
}

// NewState returns an empty registry document.
func NewState() State {
	return State{ManagedProcesses: make(map[string]ProcessConfig)}
}

// Store reads and rewrites the registry document at Path. Every mutation
// rewrites the whole document; there is no incremental write.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{Path: path}
}

// Load returns the last persisted state. A missing, unreadable, or
// malformed document degrades to an empty state; Load never fails.
func (s *Store) Load() State {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return NewState()
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return NewState()
	}
	if st.ManagedProcesses == nil {
		st.ManagedProcesses = make(map[string]ProcessConfig)
	}
	return st
}

// Persist stamps a fresh sync timestamp and atomically replaces the
// document on disk. Failure here is a hard error: silent loss of
// configuration is unacceptable.
func (s *Store) Persist(st State) error {
	st.LastSynced = time.Now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".registry-*.json")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close registry temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
