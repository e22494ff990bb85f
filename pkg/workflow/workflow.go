// Package workflow defines the pipeline's declarative configuration: the
// ordered query and reference filter chains plus the ordered score
// computation list. Validation is eager, so configuration typos surface
// before any spectra are loaded.
package workflow

import (
	"fmt"
	"log/slog"

	"github.com/spectralworks/specmatch/pkg/filters"
	"github.com/spectralworks/specmatch/pkg/process"
	"github.com/spectralworks/specmatch/pkg/similarity"
)

// MaskingOp is the score computation name that prunes the score matrix by
// value range instead of computing a similarity measure.
const MaskingOp = "filter_by_range"

// ReferenceSentinel in a document's reference_filters field means "use the
// query filters". Loading resolves it to a copy by value.
const ReferenceSentinel = "processing_queries"

// FilterStep names one processing filter plus its options.
type FilterStep struct {
	Name    string
	Options filters.Options
}

// ScoreStep is one score computation entry: the masking op or a similarity
// measure, referenced by name or supplied directly as a factory.
type ScoreStep struct {
	Name    string
	Factory similarity.Factory
	Options similarity.Options
}

// Config assembles a workflow. Presets select named default filter chains;
// extra filters append after the preset's, in order. Nil registries fall
// back to the built-in defaults.
type Config struct {
	QueryPreset           string
	ReferencePreset       string
	ExtraQueryFilters     []FilterStep
	ExtraReferenceFilters []FilterStep
	ScoreComputations     []ScoreStep

	Filters  *filters.Registry
	Measures *similarity.Registry
}

// Workflow is a validated pipeline definition.
type Workflow struct {
	queryFilters      []FilterStep
	referenceFilters  []FilterStep
	scoreComputations []ScoreStep

	filters  *filters.Registry
	measures *similarity.Registry
}

// New builds a workflow and validates every part of it: presets and filter
// names resolve against the filter registry, score computations against
// the measure registry.
func New(c Config) (*Workflow, error) {
	if c.Filters == nil {
		c.Filters = filters.DefaultRegistry()
	}
	if c.Measures == nil {
		c.Measures = similarity.DefaultRegistry()
	}

	w := &Workflow{
		filters:  c.Filters,
		measures: c.Measures,
	}

	queryFilters, err := assembleFilters(c.QueryPreset, c.ExtraQueryFilters)
	if err != nil {
		return nil, fmt.Errorf("query filters: %w", err)
	}
	referenceFilters, err := assembleFilters(c.ReferencePreset, c.ExtraReferenceFilters)
	if err != nil {
		return nil, fmt.Errorf("reference filters: %w", err)
	}

	if err := w.SetQueryFilters(queryFilters); err != nil {
		return nil, err
	}
	if err := w.SetReferenceFilters(referenceFilters); err != nil {
		return nil, err
	}
	if err := w.SetScoreComputations(c.ScoreComputations); err != nil {
		return nil, err
	}
	return w, nil
}

func assembleFilters(preset string, extra []FilterStep) ([]FilterStep, error) {
	names, err := filters.Preset(preset)
	if err != nil {
		return nil, fmt.Errorf("unknown preset %q: %w", preset, ErrConfiguration)
	}

	steps := make([]FilterStep, 0, len(names)+len(extra))
	for _, name := range names {
		steps = append(steps, FilterStep{Name: name})
	}
	steps = append(steps, cloneFilterSteps(extra)...)
	return steps, nil
}

// CheckScoreComputations validates computation entries against a measure
// registry: each must be the masking op, a registered measure name
// (ignoring case), or carry its own factory. The first entry must not be
// the masking op, since no scores exist to mask yet.
func CheckScoreComputations(steps []ScoreStep, measures *similarity.Registry) error {
	if measures == nil {
		measures = similarity.DefaultRegistry()
	}
	for i, step := range steps {
		if step.Name == MaskingOp {
			if i == 0 {
				return fmt.Errorf("first score computation cannot be %q, no scores exist yet: %w",
					MaskingOp, ErrConfiguration)
			}
			continue
		}
		if step.Factory != nil {
			continue
		}
		if !measures.Has(step.Name) {
			return fmt.Errorf("unknown score computation %q: %w", step.Name, ErrConfiguration)
		}
	}
	return nil
}

// QueryFilters returns a copy of the query filter chain.
func (w *Workflow) QueryFilters() []FilterStep {
	return cloneFilterSteps(w.queryFilters)
}

// ReferenceFilters returns a copy of the reference filter chain.
func (w *Workflow) ReferenceFilters() []FilterStep {
	return cloneFilterSteps(w.referenceFilters)
}

// ScoreComputations returns a copy of the computation list.
func (w *Workflow) ScoreComputations() []ScoreStep {
	return cloneScoreSteps(w.scoreComputations)
}

// SetQueryFilters replaces the query filter chain after validating it.
func (w *Workflow) SetQueryFilters(steps []FilterStep) error {
	if err := w.checkFilters(steps); err != nil {
		return fmt.Errorf("query filters: %w", err)
	}
	w.queryFilters = cloneFilterSteps(steps)
	return nil
}

// SetReferenceFilters replaces the reference filter chain after
// validating it.
func (w *Workflow) SetReferenceFilters(steps []FilterStep) error {
	if err := w.checkFilters(steps); err != nil {
		return fmt.Errorf("reference filters: %w", err)
	}
	w.referenceFilters = cloneFilterSteps(steps)
	return nil
}

// SetScoreComputations replaces the computation list after validating it.
func (w *Workflow) SetScoreComputations(steps []ScoreStep) error {
	if err := CheckScoreComputations(steps, w.measures); err != nil {
		return err
	}
	w.scoreComputations = cloneScoreSteps(steps)
	return nil
}

// checkFilters resolves and builds every step once, so bad names and bad
// options fail at configuration time.
func (w *Workflow) checkFilters(steps []FilterStep) error {
	for _, step := range steps {
		if _, err := w.filters.New(step.Name, step.Options, nil); err != nil {
			return fmt.Errorf("%v: %w", err, ErrConfiguration)
		}
	}
	return nil
}

// QueryProcessor builds the processor for the query filter chain.
func (w *Workflow) QueryProcessor(log *slog.Logger) (*process.Processor, error) {
	return w.buildProcessor(w.queryFilters, log)
}

// ReferenceProcessor builds the processor for the reference filter chain.
func (w *Workflow) ReferenceProcessor(log *slog.Logger) (*process.Processor, error) {
	return w.buildProcessor(w.referenceFilters, log)
}

func (w *Workflow) buildProcessor(defs []FilterStep, log *slog.Logger) (*process.Processor, error) {
	steps := make([]filters.Step, 0, len(defs))
	for _, def := range defs {
		step, err := w.filters.New(def.Name, def.Options, log)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrConfiguration)
		}
		steps = append(steps, step)
	}
	return process.New(steps, log), nil
}

// BuildMeasure instantiates the similarity measure of one non-masking
// computation step.
func (w *Workflow) BuildMeasure(step ScoreStep) (similarity.Measure, error) {
	if step.Factory != nil {
		m, err := step.Factory(step.Options)
		if err != nil {
			return nil, fmt.Errorf("building supplied measure: %v: %w", err, ErrConfiguration)
		}
		return m, nil
	}

	m, err := w.measures.New(step.Name, step.Options)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrConfiguration)
	}
	return m, nil
}

// MaskBounds extracts the target column name and range bounds of a
// masking step. A missing name targets the chronologically last column;
// missing bounds are unbounded.
func (s ScoreStep) MaskBounds() (string, *float64, *float64, error) {
	name := ""
	if raw, ok := s.Options["name"]; ok && raw != nil {
		str, ok := raw.(string)
		if !ok {
			return "", nil, nil, fmt.Errorf("masking option \"name\": expected string, got %T: %w",
				raw, ErrConfiguration)
		}
		name = str
	}

	low, err := maskBound(s.Options, "low")
	if err != nil {
		return "", nil, nil, err
	}
	high, err := maskBound(s.Options, "high")
	if err != nil {
		return "", nil, nil, err
	}
	return name, low, high, nil
}

func maskBound(opts similarity.Options, key string) (*float64, error) {
	raw, ok := opts[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var bound float64
	switch v := raw.(type) {
	case float64:
		bound = v
	case float32:
		bound = float64(v)
	case int:
		bound = float64(v)
	case int64:
		bound = float64(v)
	default:
		return nil, fmt.Errorf("masking option %q: expected number, got %T: %w", key, raw, ErrConfiguration)
	}
	return &bound, nil
}

func cloneFilterSteps(steps []FilterStep) []FilterStep {
	out := make([]FilterStep, len(steps))
	for i, step := range steps {
		out[i] = FilterStep{Name: step.Name, Options: step.Options.Clone()}
	}
	return out
}

func cloneScoreSteps(steps []ScoreStep) []ScoreStep {
	out := make([]ScoreStep, len(steps))
	for i, step := range steps {
		var opts similarity.Options
		if step.Options != nil {
			opts = make(similarity.Options, len(step.Options))
			for k, v := range step.Options {
				opts[k] = v
			}
		}
		out[i] = ScoreStep{Name: step.Name, Factory: step.Factory, Options: opts}
	}
	return out
}
