package similarity

import (
	"math"
	"sort"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// peakPair is one candidate match between a reference and a query peak.
type peakPair struct {
	refIdx   int
	queryIdx int
	product  float64
}

// peakWeight is the contribution of one peak under the configured powers.
func peakWeight(p spectrum.Peak, mzPower, intensityPower float64) float64 {
	return math.Pow(p.Mz, mzPower) * math.Pow(p.Intensity, intensityPower)
}

// vectorNorm is the Euclidean norm of the weighted peak vector.
func vectorNorm(peaks spectrum.Peaks, mzPower, intensityPower float64) float64 {
	sum := 0.0
	for _, p := range peaks {
		w := peakWeight(p, mzPower, intensityPower)
		sum += w * w
	}
	return math.Sqrt(sum)
}

// collectPeakPairs finds candidate pairs satisfying
// |ref.Mz - query.Mz - shift| <= tolerance. Both peak lists are mz-sorted,
// so a sliding window bounds the scan.
func collectPeakPairs(ref, query spectrum.Peaks, tolerance, mzPower, intensityPower, shift float64) []peakPair {
	var pairs []peakPair
	lo := 0
	for i, rp := range ref {
		target := rp.Mz - shift
		for lo < len(query) && query[lo].Mz < target-tolerance {
			lo++
		}
		for j := lo; j < len(query) && query[j].Mz <= target+tolerance; j++ {
			pairs = append(pairs, peakPair{
				refIdx:   i,
				queryIdx: j,
				product:  peakWeight(rp, mzPower, intensityPower) * peakWeight(query[j], mzPower, intensityPower),
			})
		}
	}
	return pairs
}

// scoreMatches picks non-overlapping pairs greedily, highest product first,
// and normalizes by both weighted vector norms. Ties sort by reference then
// query index so results are deterministic.
func scoreMatches(pairs []peakPair, refNorm, queryNorm float64) Score {
	if len(pairs) == 0 || refNorm == 0 || queryNorm == 0 {
		return Score{}
	}

	sort.Slice(pairs, func(a, b int) bool {
		pa, pb := pairs[a], pairs[b]
		if pa.product != pb.product {
			return pa.product > pb.product
		}
		if pa.refIdx != pb.refIdx {
			return pa.refIdx < pb.refIdx
		}
		return pa.queryIdx < pb.queryIdx
	})

	usedRef := make(map[int]bool, len(pairs))
	usedQuery := make(map[int]bool, len(pairs))
	total := 0.0
	matches := 0
	for _, pair := range pairs {
		if usedRef[pair.refIdx] || usedQuery[pair.queryIdx] {
			continue
		}
		usedRef[pair.refIdx] = true
		usedQuery[pair.queryIdx] = true
		total += pair.product
		matches++
	}

	return Score{Score: total / (refNorm * queryNorm), Matches: matches}
}

// CosineGreedy is the greedy cosine similarity between two peak lists.
// Peaks match when their mz values differ by at most the tolerance; each
// peak is used at most once, highest intensity product first.
type CosineGreedy struct {
	tolerance      float64
	mzPower        float64
	intensityPower float64
}

// NewCosineGreedy builds the measure. Options: tolerance (default 0.1),
// mz_power (default 0), intensity_power (default 1).
func NewCosineGreedy(opts Options) (*CosineGreedy, error) {
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
	return &CosineGreedy{
		tolerance:      tolerance,
		mzPower:        mzPower,
		intensityPower: intensityPower,
	}, nil
}

func (m *CosineGreedy) Name() string { return "CosineGreedy" }

func (m *CosineGreedy) Fields() []string { return []string{"score", "matches"} }

func (m *CosineGreedy) Symmetric() bool { return true }

func (m *CosineGreedy) Pair(ref, query *spectrum.Spectrum) (Score, error) {
	pairs := collectPeakPairs(ref.Peaks(), query.Peaks(), m.tolerance, m.mzPower, m.intensityPower, 0)
	return scoreMatches(pairs,
		vectorNorm(ref.Peaks(), m.mzPower, m.intensityPower),
		vectorNorm(query.Peaks(), m.mzPower, m.intensityPower)), nil
}
