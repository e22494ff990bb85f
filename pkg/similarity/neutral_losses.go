package similarity

import (
	"fmt"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// NeutralLossesCosine is the greedy cosine computed on neutral-loss
// spectra: each peak mz is replaced by precursor_mz - mz before matching.
// Negative losses (peaks above the precursor) are discarded. Both spectra
// must carry a precursor_mz.
type NeutralLossesCosine struct {
	tolerance      float64
	mzPower        float64
	intensityPower float64
}

// NewNeutralLossesCosine builds the measure. Options: tolerance (default
// 0.1), mz_power (default 0), intensity_power (default 1).
func NewNeutralLossesCosine(opts Options) (*NeutralLossesCosine, error) {
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
	return &NeutralLossesCosine{
		tolerance:      tolerance,
		mzPower:        mzPower,
		intensityPower: intensityPower,
	}, nil
}

func (m *NeutralLossesCosine) Name() string { return "NeutralLossesCosine" }

func (m *NeutralLossesCosine) Fields() []string { return []string{"score", "matches"} }

func (m *NeutralLossesCosine) Symmetric() bool { return true }

func (m *NeutralLossesCosine) Pair(ref, query *spectrum.Spectrum) (Score, error) {
	refLosses, err := lossPeaks(ref, "reference spectrum")
	if err != nil {
		return Score{}, err
	}
	queryLosses, err := lossPeaks(query, "query spectrum")
	if err != nil {
		return Score{}, err
	}

	pairs := collectPeakPairs(refLosses, queryLosses, m.tolerance, m.mzPower, m.intensityPower, 0)
	return scoreMatches(pairs,
		vectorNorm(refLosses, m.mzPower, m.intensityPower),
		vectorNorm(queryLosses, m.mzPower, m.intensityPower)), nil
}

// lossPeaks converts a spectrum to its neutral-loss peak list, sorted by
// ascending loss. Peak order reverses because high mz means small loss.
func lossPeaks(s *spectrum.Spectrum, side string) (spectrum.Peaks, error) {
	precursor, ok := s.Float("precursor_mz")
	if !ok {
		return nil, fmt.Errorf("%s: %w", side, ErrMissingPrecursorMz)
	}

	peaks := s.Peaks()
	losses := make(spectrum.Peaks, 0, len(peaks))
	for i := len(peaks) - 1; i >= 0; i-- {
		loss := precursor - peaks[i].Mz
		if loss < 0 {
			continue
		}
		losses = append(losses, spectrum.Peak{Mz: loss, Intensity: peaks[i].Intensity})
	}
	return losses, nil
}
