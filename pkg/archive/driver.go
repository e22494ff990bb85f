// Package archive persists scoring runs so they can be listed and
// inspected after the fact.
package archive

import "context"

// Driver defines the interface for persisting and retrieving run records
// in an archive backend.
type Driver interface {
	// SaveRun stores one run record. Saving a run ID that already exists
	// replaces the stored record.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by its ID.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns all stored runs, newest first.
	ListRuns(ctx context.Context) ([]*Run, error)

	// Close closes the archive and releases any resources.
	Close() error
}
