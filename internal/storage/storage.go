// Package storage persists the canonical game state as a single JSON
// document. The running process is the source of truth; the file is a
// best-effort durable copy refreshed after every committed mutation.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nimred/encounter/internal/domain"
	"github.com/spf13/afero"
)

// StateStore reads and writes the roster document at a fixed path. The
// filesystem is abstracted behind afero so tests run against an in-memory fs.
type StateStore struct {
	fs   afero.Fs
	path string
}

// NewStateStore returns a store writing to path on the given filesystem.
func NewStateStore(fs afero.Fs, path string) *StateStore {
	return &StateStore{fs: fs, path: path}
}

// Load reads the persisted roster. A missing or corrupt file falls back to an
// empty roster; that is the only startup recovery this service needs.
func (s *StateStore) Load() domain.GameState {
	raw, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		slog.Info("No usable state file, starting with an empty roster", "path", s.path, "error", err)
		return domain.NewGameState()
	}

	var state domain.GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		slog.Warn("State file is corrupt, starting with an empty roster", "path", s.path, "error", err)
		return domain.NewGameState()
	}
	state.Normalize()
	return state
}

// Save overwrites the roster document. The write goes to a temp file first
// and is moved into place with a rename, so a crash mid-write can never leave
// a truncated document behind.
func (s *StateStore) Save(state domain.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
