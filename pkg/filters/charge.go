package filters

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// makeChargeInt converts the charge field to an integer where possible.
// Charge lists collapse to their first element. Strings that cannot be
// parsed are left in place with a warning.
type makeChargeInt struct {
	log *slog.Logger
}

func newMakeChargeInt(_ Options, log *slog.Logger) (Step, error) {
	return &makeChargeInt{log: log}, nil
}

func (f *makeChargeInt) Name() string { return "make_charge_int" }

func (f *makeChargeInt) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	charge := out.Get("charge")
	if charge == nil {
		return out
	}

	// Charge lists from some readers carry the value in the first element.
	switch v := charge.(type) {
	case []int:
		if len(v) == 0 {
			return out
		}
		charge = v[0]
	case []float64:
		if len(v) == 0 {
			return out
		}
		charge = v[0]
	case []any:
		if len(v) == 0 {
			return out
		}
		charge = v[0]
	}

	if value, ok := coerceCharge(charge); ok {
		out.Set("charge", value)
		return out
	}
	if raw, isString := charge.(string); isString {
		f.log.Warn("found charge that cannot be converted to integer", "charge", raw)
	}
	return out
}

func coerceCharge(charge any) (int, bool) {
	switch v := charge.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	case string:
		value, err := parseCharge(v)
		if err == nil {
			return value, true
		}
	}
	return 0, false
}

// parseCharge accepts plain integers plus the "1+" / "2-" spellings common
// in library files.
func parseCharge(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)

	sign := 1
	if strings.HasSuffix(trimmed, "+") {
		trimmed = strings.TrimSuffix(trimmed, "+")
	} else if strings.HasSuffix(trimmed, "-") {
		sign = -1
		trimmed = strings.TrimSuffix(trimmed, "-")
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return value, nil
	}
	return sign * value, nil
}
