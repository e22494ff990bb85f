package archive

import "time"

// Run lifecycle status values. The archive stores only the terminal two;
// pending and running describe queued jobs that have not finished yet.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is one archived scoring run.
type Run struct {
	// ID is the run's unique identifier, assigned when the run was created.
	ID string

	// CreatedAt is when the run started.
	CreatedAt time.Time

	// Status is the terminal status, StatusCompleted or StatusFailed.
	Status string

	// Error holds the failure message for failed runs.
	Error string

	// Workflow is the YAML serialization of the workflow the run executed.
	Workflow []byte

	// QueryCount, ReferenceCount and ScoreCount size the run's collections.
	QueryCount     int
	ReferenceCount int
	ScoreCount     int

	// ScoreData is the JSON-exported score matrix of a completed run.
	ScoreData []byte
}
