// Package inmemory provides a map-backed archive driver for tests and
// single-process use.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/spectralworks/specmatch/pkg/archive"
)

// Driver implements archive.Driver using an in-memory map.
type Driver struct {
	// mu guards the run map.
	mu sync.RWMutex

	// runs maps run ID to its record.
	runs map[string]*archive.Run
}

// NewDriver creates a new in-memory archive.
func NewDriver() *Driver {
	return &Driver{
		runs: make(map[string]*archive.Run),
	}
}

// SaveRun stores a run record, replacing any record with the same ID.
func (d *Driver) SaveRun(_ context.Context, run *archive.Run) error {
	if run == nil {
		return errors.New("cannot store nil run")
	}
	if run.ID == "" {
		return errors.New("cannot store run without an ID")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.runs[run.ID] = run
	return nil
}

// GetRun retrieves a run by its ID.
func (d *Driver) GetRun(_ context.Context, id string) (*archive.Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	run, ok := d.runs[id]
	if !ok {
		return nil, archive.NotFoundError{RunID: id}
	}

	return run, nil
}

// ListRuns returns all stored runs, newest first.
func (d *Driver) ListRuns(_ context.Context) ([]*archive.Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	runs := make([]*archive.Run, 0, len(d.runs))
	for _, run := range d.runs {
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})

	return runs, nil
}

// Count returns the number of stored runs.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.runs)
}

// Close is a no-op for the in-memory archive.
func (d *Driver) Close() error {
	return nil
}
