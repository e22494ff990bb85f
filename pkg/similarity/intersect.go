package similarity

import (
	"math"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// IntersectMz scores the overlap of two spectra as the Jaccard index of
// their rounded mz values: intersection size divided by union size. The
// scaling factor is applied before rounding, so scaling 10 compares mz
// values at 0.1 resolution.
type IntersectMz struct {
	scaling float64
}

// NewIntersectMz builds the measure. Options: scaling (default 1).
func NewIntersectMz(opts Options) (*IntersectMz, error) {
	scaling, err := optFloat(opts, "scaling", 1.0)
	if err != nil {
		return nil, err
	}
	return &IntersectMz{scaling: scaling}, nil
}

func (m *IntersectMz) Name() string { return "IntersectMz" }

func (m *IntersectMz) Fields() []string { return []string{"score"} }

func (m *IntersectMz) Symmetric() bool { return true }

func (m *IntersectMz) Pair(ref, query *spectrum.Spectrum) (Score, error) {
	refSet := m.roundedMzSet(ref.Peaks())
	querySet := m.roundedMzSet(query.Peaks())

	intersection := 0
	for mz := range refSet {
		if querySet[mz] {
			intersection++
		}
	}
	union := len(refSet) + len(querySet) - intersection
	if union == 0 {
		return Score{}, nil
	}

	return Score{Score: float64(intersection) / float64(union)}, nil
}

func (m *IntersectMz) roundedMzSet(peaks spectrum.Peaks) map[int64]bool {
	set := make(map[int64]bool, len(peaks))
	for _, p := range peaks {
		set[int64(math.Round(p.Mz*m.scaling))] = true
	}
	return set
}
