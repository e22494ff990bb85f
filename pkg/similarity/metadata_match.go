package similarity

import (
	"fmt"
	"math"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Tolerance units accepted by PrecursorMzMatch.
const (
	ToleranceDalton = "Dalton"
	TolerancePpm    = "ppm"
)

// PrecursorMzMatch scores 1.0 when two precursor m/z values agree within
// the tolerance, 0.0 otherwise. The tolerance is absolute (Dalton) or
// relative (ppm of the mean precursor m/z).
type PrecursorMzMatch struct {
	tolerance     float64
	toleranceType string
}

// NewPrecursorMzMatch builds the measure. Options: tolerance (default 0.1),
// tolerance_type ("Dalton" or "ppm", default "Dalton").
func NewPrecursorMzMatch(opts Options) (*PrecursorMzMatch, error) {
	tolerance, err := optFloat(opts, "tolerance", 0.1)
	if err != nil {
		return nil, err
	}
	toleranceType, err := optString(opts, "tolerance_type", ToleranceDalton)
	if err != nil {
		return nil, err
	}
	if toleranceType != ToleranceDalton && toleranceType != TolerancePpm {
		return nil, fmt.Errorf("option \"tolerance_type\": %q is not Dalton or ppm: %w",
			toleranceType, ErrInvalidOption)
	}
	return &PrecursorMzMatch{tolerance: tolerance, toleranceType: toleranceType}, nil
}

func (m *PrecursorMzMatch) Name() string { return "PrecursorMzMatch" }

func (m *PrecursorMzMatch) Fields() []string { return []string{"score"} }

func (m *PrecursorMzMatch) Symmetric() bool { return true }

func (m *PrecursorMzMatch) Pair(ref, query *spectrum.Spectrum) (Score, error) {
	refValue, ok := ref.Float("precursor_mz")
	if !ok {
		return Score{}, fmt.Errorf("reference spectrum: %w", ErrMissingPrecursorMz)
	}
	queryValue, ok := query.Float("precursor_mz")
	if !ok {
		return Score{}, fmt.Errorf("query spectrum: %w", ErrMissingPrecursorMz)
	}

	diff := math.Abs(refValue - queryValue)
	matched := false
	if m.toleranceType == TolerancePpm {
		mean := (refValue + queryValue) / 2
		matched = diff/mean*1e6 <= m.tolerance
	} else {
		matched = diff <= m.tolerance
	}

	if matched {
		return Score{Score: 1}, nil
	}
	return Score{}, nil
}

// ParentMassMatch scores 1.0 when two parent masses agree within the
// tolerance in Dalton, 0.0 otherwise.
type ParentMassMatch struct {
	tolerance float64
}

// NewParentMassMatch builds the measure. Options: tolerance (default 0.1).
func NewParentMassMatch(opts Options) (*ParentMassMatch, error) {
	tolerance, err := optFloat(opts, "tolerance", 0.1)
	if err != nil {
		return nil, err
	}
	return &ParentMassMatch{tolerance: tolerance}, nil
}

func (m *ParentMassMatch) Name() string { return "ParentMassMatch" }

func (m *ParentMassMatch) Fields() []string { return []string{"score"} }

func (m *ParentMassMatch) Symmetric() bool { return true }

func (m *ParentMassMatch) Pair(ref, query *spectrum.Spectrum) (Score, error) {
	refValue, ok := ref.Float("parent_mass")
	if !ok {
		return Score{}, fmt.Errorf("reference spectrum: %w", ErrMissingParentMass)
	}
	queryValue, ok := query.Float("parent_mass")
	if !ok {
		return Score{}, fmt.Errorf("query spectrum: %w", ErrMissingParentMass)
	}

	if math.Abs(refValue-queryValue) <= m.tolerance {
		return Score{Score: 1}, nil
	}
	return Score{}, nil
}
