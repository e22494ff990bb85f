package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	workspaceFile = "workspace.json"
)

// WorkspaceState represents the persisted workspace state.
// It remembers which workflow file is active so commands can run without
// naming one explicitly, and which run finished most recently.
type WorkspaceState struct {
	// WorkflowPath is the workflow file used when a command does not name
	// one explicitly.
	WorkflowPath string `json:"workflow_path"`

	// LastRunID is the ID of the most recently completed run.
	LastRunID string `json:"last_run_id,omitempty"`
}

// LoadWorkspaceState loads the workspace state from a target .specmatch/workspace.json.
// Returns nil, nil if no workspace state exists.
// If overrideDir is non-empty, it is used instead of the default ~/.specmatch/ location.
func (m *Manager) LoadWorkspaceState(overrideDir string) (*WorkspaceState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, workspaceFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading workspace state: %w", err)
	}

	state := &WorkspaceState{}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing workspace state: %w", err)
	}

	return state, nil
}

// SaveWorkspace persists the workspace state to a target .specmatch/workspace.json.
func (m *Manager) SaveWorkspace(state *WorkspaceState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil workspace state")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling workspace state: %w", err)
	}

	path := filepath.Join(dir, workspaceFile)
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // workspace state holds no secrets
		return fmt.Errorf("writing workspace state: %w", err)
	}

	return nil
}

// ClearWorkspace removes the workspace state file.
// The next run starts without an active workflow.
// If overrideDir is non-empty, it is used instead of the default ~/.specmatch/ location.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearWorkspace(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, workspaceFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing workspace state: %w", err)
	}

	return nil
}
