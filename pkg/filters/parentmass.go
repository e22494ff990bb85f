package filters

import (
	"log/slog"
	"math"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// massProton is the mass of a proton in Dalton.
const massProton = 1.007276466879

// addParentMass fills the parent_mass field. An existing value is coerced to
// float; otherwise the parent mass is estimated from precursor_mz and
// charge. When the charge is missing it is taken from the ionmode (+1/-1).
type addParentMass struct {
	log *slog.Logger
}

func newAddParentMass(_ Options, log *slog.Logger) (Step, error) {
	return &addParentMass{log: log}, nil
}

func (f *addParentMass) Name() string { return "add_parent_mass" }

func (f *addParentMass) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	if value, ok := out.Float("parent_mass"); ok {
		out.Set("parent_mass", value)
		return out
	}

	precursorMz, ok := out.Float("precursor_mz")
	if !ok {
		f.log.Warn("not sufficient spectrum metadata to derive parent mass")
		return out
	}

	charge, ok := spectrumCharge(out)
	if !ok || charge == 0 {
		f.log.Warn("not sufficient spectrum metadata to derive parent mass")
		return out
	}

	parentMass := precursorMz*math.Abs(float64(charge)) - float64(charge)*massProton
	out.Set("parent_mass", parentMass)
	return out
}

// spectrumCharge reads the charge field, falling back to the ionmode when
// absent.
func spectrumCharge(s *spectrum.Spectrum) (int, bool) {
	if raw := s.Get("charge"); raw != nil {
		if value, ok := coerceCharge(raw); ok {
			return value, true
		}
	}

	switch s.Get("ionmode") {
	case "positive":
		return 1, true
	case "negative":
		return -1, true
	}
	return 0, false
}
