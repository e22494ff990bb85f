package filters

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// addPrecursorMz harmonizes the precursor m/z into the precursor_mz field as
// a float. Falls back to precursor_mass and pepmass when precursor_mz itself
// is absent or unparseable. When nothing usable is found the field is set to
// nil as an explicit absence marker.
type addPrecursorMz struct {
	log *slog.Logger
}

func newAddPrecursorMz(_ Options, log *slog.Logger) (Step, error) {
	return &addPrecursorMz{log: log}, nil
}

func (f *addPrecursorMz) Name() string { return "add_precursor_mz" }

func (f *addPrecursorMz) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	if raw := out.Get("precursor_mz"); raw != nil {
		switch v := raw.(type) {
		case float64:
			out.Set("precursor_mz", v)
			return out
		case float32:
			out.Set("precursor_mz", float64(v))
			return out
		case int:
			out.Set("precursor_mz", float64(v))
			return out
		case int64:
			out.Set("precursor_mz", float64(v))
			return out
		case string:
			if value, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				out.Set("precursor_mz", value)
				return out
			}
			// unparseable string: fall through to the alternative fields
		default:
			f.log.Warn("found precursor_mz of undefined type", "type", fmt.Sprintf("%T", raw))
			return out
		}
	}

	if raw := out.Get("precursor_mass"); raw != nil {
		if value, ok := out.Float("precursor_mass"); ok {
			out.Set("precursor_mz", value)
			f.log.Info("added precursor_mz entry based on field", "field", "precursor_mass")
			return out
		}
		f.log.Warn("value cannot be converted to float", "value", raw)
		out.Set("precursor_mz", nil)
		return out
	}

	if value, ok := firstPepmass(out.Get("pepmass")); ok {
		out.Set("precursor_mz", value)
		f.log.Info("added precursor_mz entry based on field", "field", "pepmass")
		return out
	}

	f.log.Warn("no precursor_mz found in metadata")
	out.Set("precursor_mz", nil)
	return out
}

// firstPepmass extracts the mass from a pepmass field, which readers store
// as a (mass, intensity) pair.
func firstPepmass(raw any) (float64, bool) {
	switch v := raw.(type) {
	case []float64:
		if len(v) > 0 {
			return v[0], true
		}
	case []any:
		if len(v) > 0 {
			if f, ok := v[0].(float64); ok {
				return f, true
			}
		}
	case float64:
		return v, true
	}
	return 0, false
}

// requirePrecursorMz rejects spectra without a usable precursor m/z above
// the minimum.
type requirePrecursorMz struct {
	log       *slog.Logger
	minimumMz float64
}

func newRequirePrecursorMz(opts Options, log *slog.Logger) (Step, error) {
	minimum, err := opts.Float("minimum_accepted_mz", 10.0)
	if err != nil {
		return nil, err
	}
	return &requirePrecursorMz{log: log, minimumMz: minimum}, nil
}

func (f *requirePrecursorMz) Name() string { return "require_precursor_mz" }

func (f *requirePrecursorMz) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}

	value, ok := s.Float("precursor_mz")
	if !ok {
		f.log.Info("spectrum without precursor_mz was set to none")
		return nil
	}
	if value < f.minimumMz {
		f.log.Info("spectrum with too low precursor_mz was set to none",
			"precursor_mz", value, "minimum", f.minimumMz)
		return nil
	}
	return s.Clone()
}

// requirePrecursorBelowMz rejects spectra whose precursor m/z is at or
// above the maximum.
type requirePrecursorBelowMz struct {
	log   *slog.Logger
	maxMz float64
}

func newRequirePrecursorBelowMz(opts Options, log *slog.Logger) (Step, error) {
	maxMz, err := opts.Float("max_mz", 1000.0)
	if err != nil {
		return nil, err
	}
	return &requirePrecursorBelowMz{log: log, maxMz: maxMz}, nil
}

func (f *requirePrecursorBelowMz) Name() string { return "require_precursor_below_mz" }

func (f *requirePrecursorBelowMz) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}

	value, ok := s.Float("precursor_mz")
	if !ok {
		f.log.Info("spectrum without precursor_mz was set to none")
		return nil
	}
	if value >= f.maxMz {
		f.log.Info("spectrum with too high precursor_mz was set to none",
			"precursor_mz", value, "max_mz", f.maxMz)
		return nil
	}
	return s.Clone()
}

// removePeaksAroundPrecursorMz drops peaks within mz_tolerance of the
// precursor m/z. Spectra without a usable precursor pass through unchanged
// with a warning.
type removePeaksAroundPrecursorMz struct {
	log       *slog.Logger
	tolerance float64
}

func newRemovePeaksAroundPrecursorMz(opts Options, log *slog.Logger) (Step, error) {
	tolerance, err := opts.Float("mz_tolerance", 17.0)
	if err != nil {
		return nil, err
	}
	return &removePeaksAroundPrecursorMz{log: log, tolerance: tolerance}, nil
}

func (f *removePeaksAroundPrecursorMz) Name() string { return "remove_peaks_around_precursor_mz" }

func (f *removePeaksAroundPrecursorMz) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	precursorMz, ok := out.Float("precursor_mz")
	if !ok {
		f.log.Warn("skipping remove_peaks_around_precursor_mz, no precursor_mz")
		return out
	}

	kept := make(spectrum.Peaks, 0, out.NumPeaks())
	for _, peak := range out.Peaks() {
		if math.Abs(peak.Mz-precursorMz) > f.tolerance {
			kept = append(kept, peak)
		}
	}
	out.SetPeaks(kept)
	return out
}
