// Package filters implements the per-spectrum cleaning steps applied during
// spectrum processing. Each filter takes a spectrum and returns either a
// transformed clone or nil when the spectrum fails a quality gate. Filters
// never mutate their input.
package filters

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spectralworks/specmatch/pkg/logger"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Step is a single named cleaning step. Apply returns the transformed
// spectrum, or nil when the spectrum is rejected. A nil input always yields
// a nil output.
type Step interface {
	Name() string
	Apply(s *spectrum.Spectrum) *spectrum.Spectrum
}

// Factory builds a configured Step from raw options. Option validation
// happens here, at configuration time, not during processing.
type Factory func(opts Options, log *slog.Logger) (Step, error)

// Registry resolves filter names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Has reports whether a filter name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names returns all registered filter names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named filter with the given options. A nil logger is
// replaced with a nop logger.
func (r *Registry) New(name string, opts Options, log *slog.Logger) (Step, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("resolving filter %q: %w", name, ErrUnknownFilter)
	}
	if log == nil {
		log = logger.Nop()
	}

	step, err := factory(opts, log)
	if err != nil {
		return nil, fmt.Errorf("building filter %q: %w", name, err)
	}
	return step, nil
}

// DefaultRegistry returns a registry with every built-in filter registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("make_charge_int", newMakeChargeInt)
	r.Register("add_precursor_mz", newAddPrecursorMz)
	r.Register("add_parent_mass", newAddParentMass)
	r.Register("add_retention_time", newAddRetentionTime)
	r.Register("add_retention_index", newAddRetentionIndex)
	r.Register("normalize_intensities", newNormalizeIntensities)
	r.Register("select_by_intensity", newSelectByIntensity)
	r.Register("select_by_relative_intensity", newSelectByRelativeIntensity)
	r.Register("select_by_mz", newSelectByMz)
	r.Register("reduce_to_number_of_peaks", newReduceToNumberOfPeaks)
	r.Register("require_minimum_number_of_peaks", newRequireMinimumNumberOfPeaks)
	r.Register("require_precursor_mz", newRequirePrecursorMz)
	r.Register("require_precursor_below_mz", newRequirePrecursorBelowMz)
	r.Register("remove_peaks_around_precursor_mz", newRemovePeaksAroundPrecursorMz)
	return r
}
