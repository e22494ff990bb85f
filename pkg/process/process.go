// Package process applies an ordered filter chain to spectrum collections
// and reports per-step counts for auditing.
package process

import (
	"log/slog"

	"github.com/spectralworks/specmatch/pkg/filters"
	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Processor runs spectra through an ordered list of filter steps. A step
// returning nil removes the spectrum from all subsequent steps.
type Processor struct {
	steps []filters.Step
	log   *slog.Logger
}

// New creates a processor over the given steps. A nil logger is replaced
// with a nop logger.
func New(steps []filters.Step, log *slog.Logger) *Processor {
	if log == nil {
		log = logger.Nop()
	}
	return &Processor{steps: steps, log: log}
}

// Steps returns the ordered step names.
func (p *Processor) Steps() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}

// Process applies every step, in order, to each spectrum. Removed spectra
// are excluded from later steps and from the survivors. The report carries
// per-step processed/removed/changed counts.
func (p *Processor) Process(spectra []*spectrum.Spectrum) ([]*spectrum.Spectrum, *Report) {
	report := newReport(p.steps, len(spectra))
	survivors := make([]*spectrum.Spectrum, 0, len(spectra))

	for _, s := range spectra {
		current := s
		for i, step := range p.steps {
			report.Steps[i].Processed++

			next := step.Apply(current)
			if next == nil {
				report.Steps[i].Removed++
				current = nil
				break
			}
			if !next.Equal(current) {
				report.Steps[i].Changed++
			}
			current = next
		}

		if current != nil {
			survivors = append(survivors, current)
		}
	}

	report.Survived = len(survivors)
	p.log.Info("spectrum processing complete",
		"incoming", report.Incoming,
		"survived", report.Survived,
		"steps", len(p.steps))
	return survivors, report
}
