package pipeline

import (
	"time"

	"github.com/spectralworks/specmatch/pkg/process"
	"github.com/spectralworks/specmatch/pkg/scores"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Stage identifies one phase of a scoring run.
type Stage string

// Run stages in execution order. The reference stage only runs when the
// run is not symmetric.
const (
	StageIdle                 Stage = "idle"
	StageImporting            Stage = "importing"
	StageProcessingQueries    Stage = "processing_queries"
	StageProcessingReferences Stage = "processing_references"
	StageComputingScores      Stage = "computing_scores"
	StageDone                 Stage = "done"
)

// StageTiming records how long one completed stage took.
type StageTiming struct {
	Stage   Stage
	Elapsed time.Duration
}

// Result is the outcome of one completed run. Failed runs return no
// result at all.
type Result struct {
	RunID     string
	Symmetric bool

	// Queries and References are the processed collections the matrix
	// was computed over. In symmetric mode both are the same slice.
	Queries    []*spectrum.Spectrum
	References []*spectrum.Spectrum

	// QueryReport and ReferenceReport carry per-step filter counts.
	// ReferenceReport is nil in symmetric mode, where the reference
	// stage never runs.
	QueryReport     *process.Report
	ReferenceReport *process.Report

	Matrix *scores.Matrix

	Timings  []StageTiming
	Started  time.Time
	Finished time.Time
}

func (r *Result) scoreCount() int {
	if r.Matrix == nil {
		return 0
	}
	return r.Matrix.Len()
}
