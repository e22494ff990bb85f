package similarity

import (
	"fmt"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// ModifiedCosine extends the greedy cosine with mass-shift matching: peaks
// also match when their mz difference equals the precursor mass difference
// within the tolerance. Both spectra must carry a precursor_mz.
type ModifiedCosine struct {
	tolerance      float64
	mzPower        float64
	intensityPower float64
}

// NewModifiedCosine builds the measure. Options: tolerance (default 0.1),
// mz_power (default 0), intensity_power (default 1).
func NewModifiedCosine(opts Options) (*ModifiedCosine, error) {
	tolerance, err := optFloat(opts, "tolerance", 0.1)
	if err != nil {
		return nil, err
	}
	mzPower, err := optFloat(opts, "mz_power", 0.0)
	if err != nil {
		return nil, err
	}
	intensityPower, err := optFloat(opts, "intensity_power", 1.0)
	if err != nil {
		return nil, err
	}
	return &ModifiedCosine{
		tolerance:      tolerance,
		mzPower:        mzPower,
		intensityPower: intensityPower,
	}, nil
}

func (m *ModifiedCosine) Name() string { return "ModifiedCosine" }

func (m *ModifiedCosine) Fields() []string { return []string{"score", "matches"} }

func (m *ModifiedCosine) Symmetric() bool { return true }

func (m *ModifiedCosine) Pair(ref, query *spectrum.Spectrum) (Score, error) {
	refPrecursor, ok := ref.Float("precursor_mz")
	if !ok {
		return Score{}, fmt.Errorf("reference spectrum: %w", ErrMissingPrecursorMz)
	}
	queryPrecursor, ok := query.Float("precursor_mz")
	if !ok {
		return Score{}, fmt.Errorf("query spectrum: %w", ErrMissingPrecursorMz)
	}

	pairs := collectPeakPairs(ref.Peaks(), query.Peaks(), m.tolerance, m.mzPower, m.intensityPower, 0)

	massShift := refPrecursor - queryPrecursor
	if massShift != 0 {
		pairs = append(pairs, collectPeakPairs(ref.Peaks(), query.Peaks(),
			m.tolerance, m.mzPower, m.intensityPower, massShift)...)
	}

	return scoreMatches(pairs,
		vectorNorm(ref.Peaks(), m.mzPower, m.intensityPower),
		vectorNorm(query.Peaks(), m.mzPower, m.intensityPower)), nil
}
