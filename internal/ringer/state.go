package ringer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CurrentSchemaVersion is the current version of the state schema.
const CurrentSchemaVersion = 1

// Transition records details about a ringer mode change.
type Transition struct {
	From      string `json:"from,omitempty"`
	Source    string `json:"source,omitempty"` // e.g. "cli", "ringd"
	Timestamp int64  `json:"timestamp"`
}

// State is the ringer state shared between ringctl and ringd.
// This is persisted to ~/.local/share/ringd/state.json
type State struct {
	Mode           string      `json:"mode,omitempty"`
	LastTransition *Transition `json:"last_transition,omitempty"`
	SchemaVersion  int         `json:"schema_version"`
}

// stateFileMutex protects concurrent access to the state file.
var stateFileMutex sync.RWMutex

// DefaultState returns a State with no mode override.
func DefaultState() *State {
	return &State{SchemaVersion: CurrentSchemaVersion}
}

// LoadState loads the ringer state from disk.
// If the file doesn't exist or is corrupted, returns a default state.
func LoadState(path string) (*State, error) {
	stateFileMutex.RLock()
	defer stateFileMutex.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return DefaultState(), nil
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	return &state, nil
}

// SaveState writes the ringer state to disk.
func SaveState(path string, state *State) error {
	stateFileMutex.Lock()
	defer stateFileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	if state.SchemaVersion == 0 {
		state.SchemaVersion = CurrentSchemaVersion
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// SetMode updates the mode and records the transition.
func (s *State) SetMode(mode Mode, source string) {
	s.LastTransition = &Transition{
		From:      s.Mode,
		Source:    source,
		Timestamp: time.Now().Unix(),
	}
	s.Mode = mode.String()
}

// ChangedAt returns when the mode last changed, or the zero time.
func (s *State) ChangedAt() time.Time {
	if s.LastTransition == nil || s.LastTransition.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(s.LastTransition.Timestamp, 0)
}
