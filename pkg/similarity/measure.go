// Package similarity implements pairwise spectrum similarity measures and
// the dense/sparse evaluation engine that drives them over reference and
// query collections.
package similarity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Score is the result of evaluating one measure on one spectrum pair. For
// single-field measures only Score carries meaning and Matches stays zero.
type Score struct {
	Score   float64
	Matches int
}

// Measure is a configured, stateless pairwise similarity computation.
// Implementations must be deterministic given identical inputs and safe for
// concurrent Pair calls.
type Measure interface {
	// Name is the measure's type name, used to derive score column names.
	Name() string

	// Fields names the score components this measure produces, in column
	// order. Either {"score"} or {"score", "matches"}.
	Fields() []string

	// Symmetric reports whether Pair(a, b) always equals Pair(b, a),
	// allowing half-grid evaluation in symmetric pipelines.
	Symmetric() bool

	// Pair evaluates the measure for one (reference, query) pair.
	Pair(ref, query *spectrum.Spectrum) (Score, error)
}

// ColumnNames derives the score matrix column names for a measure.
// Single-field measures store under the bare measure name; multi-field
// measures store one column per field, suffixed with the field name.
func ColumnNames(m Measure) []string {
	fields := m.Fields()
	if len(fields) == 1 {
		return []string{m.Name()}
	}
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = m.Name() + "_" + field
	}
	return names
}

// FieldValue extracts a named score component.
func FieldValue(s Score, field string) float64 {
	if field == "matches" {
		return float64(s.Matches)
	}
	return s.Score
}

// Options carries the raw configuration of one measure, as decoded from a
// workflow document.
type Options map[string]any

func optFloat(opts Options, key string, def float64) (float64, error) {
	raw, ok := opts[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("option %q: %q is not a number: %w", key, v, ErrInvalidOption)
		}
		return f, nil
	}
	return 0, fmt.Errorf("option %q: unsupported type %T: %w", key, raw, ErrInvalidOption)
}

func optString(opts Options, key, def string) (string, error) {
	raw, ok := opts[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("option %q: expected string, got %T: %w", key, raw, ErrInvalidOption)
	}
	return s, nil
}
