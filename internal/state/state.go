// Package state persists the snapshot of previously observed catalog
// resources and the append-only change log, and computes diffs between
// cycles.
package state

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonesrussell/cinefeed/internal/domain"
	"github.com/jonesrussell/cinefeed/internal/logger"
	"github.com/jonesrussell/cinefeed/internal/output"
)

// State is the persisted diff-engine state for one catalog location. It
// is loaded once per catalog-sync cycle, mutated in memory, and written
// back atomically at cycle end.
type State struct {
	// Snapshot maps canonical URL to its observation record. Only
	// currently-present URLs are retained.
	Snapshot map[string]domain.SnapshotRecord `json:"snapshot"`
	// Events is the append-only change log, newest last.
	Events []domain.Event `json:"events"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{
		Snapshot: make(map[string]domain.SnapshotRecord),
		Events:   []domain.Event{},
	}
}

// Load reads the persisted state from path. A missing or unparsable
// file is treated as an empty initial state, never a fatal error.
func Load(path string, log logger.Interface) *State {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("state file unreadable, starting empty", "path", path, "error", err)
		}
		return NewState()
	}

	var s State
	if unmarshalErr := json.Unmarshal(raw, &s); unmarshalErr != nil {
		log.Warn("state file corrupt, starting empty", "path", path, "error", unmarshalErr)
		return NewState()
	}

	if s.Snapshot == nil {
		s.Snapshot = make(map[string]domain.SnapshotRecord)
	}
	if s.Events == nil {
		s.Events = []domain.Event{}
	}
	return &s
}

// Save writes the state to path atomically: the document is written to a
// temp file in the same directory and renamed over the target, so a
// crash mid-write can never leave a half-written file observable.
func Save(path string, s *State) error {
	payload, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if writeErr := output.WriteFileAtomic(path, payload); writeErr != nil {
		return fmt.Errorf("write state file: %w", writeErr)
	}
	return nil
}
