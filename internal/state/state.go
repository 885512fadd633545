// Package state persists the per-host outcome of the most recent runs to a
// well-known file, for consumption by the dashboard and other external
// observers. Writes are atomic so a polling reader never sees a torn file.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultFile is the well-known run-state location.
const DefaultFile = "/tmp/kubesync_state.json"

// Status categorizes a host's outcome in a run.
type Status string

const (
	StatusFetched      Status = "fetched"
	StatusSkipped      Status = "skipped"
	StatusNoCredential Status = "no_credential"
	StatusAuthRejected Status = "auth_rejected"
	StatusFailed       Status = "failed"
)

// HostState is one host's persisted snapshot.
type HostState struct {
	Status      Status     `json:"status"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Store reads and writes the run-state file.
type Store struct {
	Path string
}

// NewStore returns a Store over the default run-state file.
func NewStore() Store { return Store{Path: DefaultFile} }

// Read loads the state file. A missing file is an empty state, not an error.
func (s Store) Read() (map[string]HostState, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]HostState{}, nil
		}
		return nil, fmt.Errorf("reading run state %s: %w", s.Path, err)
	}
	var states map[string]HostState
	if err := json.Unmarshal(content, &states); err != nil {
		return nil, fmt.Errorf("parsing run state %s: %w", s.Path, err)
	}
	return states, nil
}

// Write replaces the state file atomically (write-to-temp-then-rename).
func (s Store) Write(states map[string]HostState) error {
	out, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing run state: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("writing run state: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("finalizing run state: %w", err)
	}
	return nil
}

// UpdateHost read-modify-writes a single host's entry, preserving the
// entries of hosts not part of the current run.
func (s Store) UpdateHost(name string, hostState HostState) error {
	states, err := s.Read()
	if err != nil {
		return err
	}
	states[name] = hostState
	return s.Write(states)
}
