package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeRunStarted is emitted when a pipeline run begins.
	EventTypeRunStarted = "specmatch.run.started"

	// EventTypeStageCompleted is emitted after each completed pipeline stage.
	EventTypeStageCompleted = "specmatch.run.stage_completed"

	// EventTypeRunFinished is emitted when a run completes or fails.
	EventTypeRunFinished = "specmatch.run.finished"
)

// RunEvent is a transport-neutral event payload for a pipeline run
// transition.
type RunEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	RunID         string    `json:"run_id"`
	Stage         string    `json:"stage,omitempty"`
	Counts        RunCounts `json:"counts"`
	Error         string    `json:"error,omitempty"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// RunCounts sizes the run's collections as of the event.
type RunCounts struct {
	Queries    int `json:"queries"`
	References int `json:"references"`
	Scores     int `json:"scores"`
}
