package filters

import (
	"log/slog"
	"math"
	"sort"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// selectByMz keeps peaks whose m/z lies within the inclusive
// [mz_from, mz_to] range.
type selectByMz struct {
	from float64
	to   float64
}

func newSelectByMz(opts Options, _ *slog.Logger) (Step, error) {
	from, err := opts.Float("mz_from", 0.0)
	if err != nil {
		return nil, err
	}
	to, err := opts.Float("mz_to", 1000.0)
	if err != nil {
		return nil, err
	}
	return &selectByMz{from: from, to: to}, nil
}

func (f *selectByMz) Name() string { return "select_by_mz" }

func (f *selectByMz) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	kept := make(spectrum.Peaks, 0, out.NumPeaks())
	for _, peak := range out.Peaks() {
		if peak.Mz >= f.from && peak.Mz <= f.to {
			kept = append(kept, peak)
		}
	}
	out.SetPeaks(kept)
	return out
}

// requireMinimumNumberOfPeaks rejects spectra with fewer than n_required
// peaks.
type requireMinimumNumberOfPeaks struct {
	log       *slog.Logger
	nRequired int
}

func newRequireMinimumNumberOfPeaks(opts Options, log *slog.Logger) (Step, error) {
	nRequired, err := opts.Int("n_required", 10)
	if err != nil {
		return nil, err
	}
	return &requireMinimumNumberOfPeaks{log: log, nRequired: nRequired}, nil
}

func (f *requireMinimumNumberOfPeaks) Name() string { return "require_minimum_number_of_peaks" }

func (f *requireMinimumNumberOfPeaks) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	if s.NumPeaks() < f.nRequired {
		f.log.Info("spectrum with too few peaks was set to none",
			"peaks", s.NumPeaks(), "required", f.nRequired)
		return nil
	}
	return s.Clone()
}

// reduceToNumberOfPeaks caps the peak count. Spectra below n_required are
// rejected. When ratio_desired is set the desired count scales with the
// parent mass, clamped between n_required and n_max. The highest-intensity
// peaks survive; ties keep the higher-mz peak. Mz order is restored after
// selection.
type reduceToNumberOfPeaks struct {
	log          *slog.Logger
	nRequired    int
	nMax         int
	ratioDesired *float64
}

func newReduceToNumberOfPeaks(opts Options, log *slog.Logger) (Step, error) {
	nRequired, err := opts.Int("n_required", 1)
	if err != nil {
		return nil, err
	}
	nMax, err := opts.Int("n_max", math.MaxInt)
	if err != nil {
		return nil, err
	}
	ratioDesired, err := opts.FloatPtr("ratio_desired")
	if err != nil {
		return nil, err
	}
	return &reduceToNumberOfPeaks{
		log:          log,
		nRequired:    nRequired,
		nMax:         nMax,
		ratioDesired: ratioDesired,
	}, nil
}

func (f *reduceToNumberOfPeaks) Name() string { return "reduce_to_number_of_peaks" }

func (f *reduceToNumberOfPeaks) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}

	if s.NumPeaks() < f.nRequired {
		f.log.Info("spectrum with too few peaks was set to none",
			"peaks", s.NumPeaks(), "required", f.nRequired)
		return nil
	}

	nDesired := f.nRequired
	if f.ratioDesired != nil {
		parentMass, ok := s.Float("parent_mass")
		if !ok {
			f.log.Error("cannot use ratio_desired for spectrum without parent_mass")
			return nil
		}
		nDesired = max(f.nRequired, int(math.Round(*f.ratioDesired*parentMass)))
	}

	threshold := f.nMax
	if f.ratioDesired != nil {
		threshold = min(nDesired, f.nMax)
	}
	if s.NumPeaks() <= threshold {
		return s.Clone()
	}

	out := s.Clone()
	out.SetPeaks(topIntensityPeaks(out.Peaks(), threshold))
	return out
}

// topIntensityPeaks keeps the n highest-intensity peaks in mz order. The
// selection is stable on intensity, so equal intensities keep the later
// (higher-mz) peak.
func topIntensityPeaks(peaks spectrum.Peaks, n int) spectrum.Peaks {
	if len(peaks) <= n {
		return peaks
	}

	indices := make([]int, len(peaks))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return peaks[indices[a]].Intensity < peaks[indices[b]].Intensity
	})

	kept := indices[len(indices)-n:]
	sort.Ints(kept)

	out := make(spectrum.Peaks, 0, n)
	for _, i := range kept {
		out = append(out, peaks[i])
	}
	return out
}
