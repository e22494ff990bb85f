package filters

import (
	"log/slog"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Accepted source keys, tried in order. The first present key wins.
var (
	retentionTimeKeys  = []string{"retention_time", "retentiontime", "rt", "scan_start_time", "rt_query"}
	retentionIndexKeys = []string{"retention_index", "retentionindex", "ri"}
)

// addRetention harmonizes retention information from one of several source
// keys into a single target key as a float. Negative values and values that
// cannot be parsed resolve to an explicit nil marker.
type addRetention struct {
	log          *slog.Logger
	name         string
	targetKey    string
	acceptedKeys []string
}

func newAddRetentionTime(_ Options, log *slog.Logger) (Step, error) {
	return &addRetention{
		log:          log,
		name:         "add_retention_time",
		targetKey:    "retention_time",
		acceptedKeys: retentionTimeKeys,
	}, nil
}

func newAddRetentionIndex(_ Options, log *slog.Logger) (Step, error) {
	return &addRetention{
		log:          log,
		name:         "add_retention_index",
		targetKey:    "retention_index",
		acceptedKeys: retentionIndexKeys,
	}, nil
}

func (f *addRetention) Name() string { return f.name }

func (f *addRetention) Apply(s *spectrum.Spectrum) *spectrum.Spectrum {
	if s == nil {
		return nil
	}
	out := s.Clone()

	for _, key := range f.acceptedKeys {
		raw := out.Get(key)
		if raw == nil {
			continue
		}
		if value, ok := f.safeConvert(raw); ok {
			out.Set(f.targetKey, value)
			return out
		}
	}

	out.Set(f.targetKey, nil)
	return out
}

// safeConvert parses a retention value. Single-element lists unwrap first.
// Negative values are discarded.
func (f *addRetention) safeConvert(raw any) (float64, bool) {
	if list, ok := raw.([]any); ok && len(list) == 1 {
		raw = list[0]
	}
	if list, ok := raw.([]float64); ok && len(list) == 1 {
		raw = list[0]
	}

	value, ok := spectrum.ToFloat(raw)
	if !ok {
		f.log.Warn("value cannot be converted to float", "value", raw)
		return 0, false
	}
	if value < 0 {
		return 0, false
	}
	return value, true
}
