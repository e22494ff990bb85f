package filters

import (
	"log/slog"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// normalizeIntensities scales peak intensities so the highest peak is 1.0.
// Spectra whose peaks are all at or below zero intensity are rejected.
type normalizeIntensities struct {
	log *slog.Logger
}

func newNormalizeIntensities(_ Options, log *slog.Logger) (Step, error) {
	return &normalizeIntensities{log: log}, nil
}

func (f *normalizeIntensities) Name() string { return "normalize_intensities" }

func (f *normalizeIntensities) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	if out.NumPeaks() == 0 {
		f.log.Warn("normalizing empty peaks, nothing to do")
		return out
	}

	max := out.Peaks().MaxIntensity()
	if max <= 0 {
		f.log.Warn("spectrum with all peak intensities <= 0 was set to none")
		return nil
	}

	scaled := make(spectrum.Peaks, out.NumPeaks())
	for i, peak := range out.Peaks() {
		scaled[i] = spectrum.Peak{Mz: peak.Mz, Intensity: peak.Intensity / max}
	}
	out.SetPeaks(scaled)
	return out
}

// selectByIntensity keeps peaks whose absolute intensity lies within the
// inclusive [intensity_from, intensity_to] range.
type selectByIntensity struct {
	from float64
	to   float64
}

func newSelectByIntensity(opts Options, _ *slog.Logger) (Step, error) {
	from, err := opts.Float("intensity_from", 10.0)
	if err != nil {
		return nil, err
	}
	to, err := opts.Float("intensity_to", 200.0)
	if err != nil {
		return nil, err
	}
	return &selectByIntensity{from: from, to: to}, nil
}

func (f *selectByIntensity) Name() string { return "select_by_intensity" }

func (f *selectByIntensity) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	kept := make(spectrum.Peaks, 0, out.NumPeaks())
	for _, peak := range out.Peaks() {
		if peak.Intensity >= f.from && peak.Intensity <= f.to {
			kept = append(kept, peak)
		}
	}
	out.SetPeaks(kept)
	return out
}

// selectByRelativeIntensity keeps peaks whose intensity relative to the
// highest peak lies within the inclusive [intensity_from, intensity_to]
// range. Empty spectra pass through unchanged.
type selectByRelativeIntensity struct {
	log  *slog.Logger
	from float64
	to   float64
}

func newSelectByRelativeIntensity(opts Options, log *slog.Logger) (Step, error) {
	from, err := opts.Float("intensity_from", 0.0)
	if err != nil {
		return nil, err
	}
	to, err := opts.Float("intensity_to", 1.0)
	if err != nil {
		return nil, err
	}
	return &selectByRelativeIntensity{log: log, from: from, to: to}, nil
}

func (f *selectByRelativeIntensity) Name() string { return "select_by_relative_intensity" }

func (f *selectByRelativeIntensity) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	if out.NumPeaks() == 0 {
		return out
	}
	max := out.Peaks().MaxIntensity()
	if max <= 0 {
		f.log.Warn("skipping select_by_relative_intensity, no positive intensities")
		return out
	}

	kept := make(spectrum.Peaks, 0, out.NumPeaks())
	for _, peak := range out.Peaks() {
		relative := peak.Intensity / max
		if relative >= f.from && relative <= f.to {
			kept = append(kept, peak)
		}
	}
	out.SetPeaks(kept)
	return out
}
