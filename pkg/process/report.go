package process

import (
	"fmt"
	"strings"

	"github.com/spectralworks/specmatch/pkg/filters"
)

// StepReport holds the counters of a single filter step.
type StepReport struct {
	Name      string `json:"name"`
	Processed int    `json:"processed"`
	Removed   int    `json:"removed"`
	Changed   int    `json:"changed"`
}

// Report summarizes one processing pass: the incoming and surviving
// spectrum counts plus per-step counters in application order.
type Report struct {
	Incoming int          `json:"incoming"`
	Survived int          `json:"survived"`
	Steps    []StepReport `json:"steps"`
}

func newReport(steps []filters.Step, incoming int) *Report {
	r := &Report{
		Incoming: incoming,
		Steps:    make([]StepReport, len(steps)),
	}
	for i, step := range steps {
		r.Steps[i].Name = step.Name()
	}
	return r
}

// Removed returns the total number of spectra removed across all steps.
func (r *Report) Removed() int {
	return r.Incoming - r.Survived
}

// String renders a human-readable summary, one line per step.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "processed %d spectra, %d survived\n", r.Incoming, r.Survived)
	for _, step := range r.Steps {
		fmt.Fprintf(&b, "  %s: %d processed, %d removed, %d changed\n",
			step.Name, step.Processed, step.Removed, step.Changed)
	}
	return b.String()
}
