package filters

import "fmt"

// Filter presets bundle the commonly used cleaning chains. Order matters:
// metadata harmonization runs before derived fields, quality gates last.
var presets = map[string][]string{
	"minimal": {
		"make_charge_int",
		"add_precursor_mz",
	},
	"basic": {
		"make_charge_int",
		"add_precursor_mz",
		"add_parent_mass",
		"add_retention_time",
		"add_retention_index",
	},
	"default": {
		"make_charge_int",
		"add_precursor_mz",
		"add_parent_mass",
		"add_retention_time",
		"add_retention_index",
		"normalize_intensities",
		"require_minimum_number_of_peaks",
	},
}

// Preset returns the ordered filter names of a named preset. The empty
// string selects no preset and returns an empty list.
func Preset(name string) ([]string, error) {
	if name == "" {
		return nil, nil
	}

	names, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("resolving filter preset %q: %w", name, ErrUnknownPreset)
	}

	out := make([]string, len(names))
	copy(out, names)
	return out, nil
}

// PresetNames returns the available preset names.
func PresetNames() []string {
	return []string{"minimal", "basic", "default"}
}
