package filters

import (
	"fmt"
	"strconv"
	"strings"
)

// Options carries the raw configuration of one filter step, as decoded from
// a workflow document. Values are heterogeneous; the typed accessors coerce
// and validate them.
type Options map[string]any

// Float reads key as a float64, returning def when absent. Numeric types
// and numeric strings are accepted.
func (o Options) Float(key string, def float64) (float64, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("option %q: %q is not a number: %w", key, v, ErrInvalidOption)
		}
		return f, nil
	}
	return 0, fmt.Errorf("option %q: unsupported type %T: %w", key, raw, ErrInvalidOption)
}

// FloatPtr reads key as a float64, returning nil when absent. Used for
// options where absence and zero differ.
func (o Options) FloatPtr(key string) (*float64, error) {
	if raw, ok := o[key]; !ok || raw == nil {
		return nil, nil
	}
	f, err := o.Float(key, 0)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Int reads key as an int, returning def when absent.
func (o Options) Int(key string, def int) (int, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("option %q: %v is not an integer: %w", key, v, ErrInvalidOption)
		}
		return int(v), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("option %q: %q is not an integer: %w", key, v, ErrInvalidOption)
		}
		return i, nil
	}
	return 0, fmt.Errorf("option %q: unsupported type %T: %w", key, raw, ErrInvalidOption)
}

// String reads key as a string, returning def when absent.
func (o Options) String(key, def string) (string, error) {
	raw, ok := o[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("option %q: expected string, got %T: %w", key, raw, ErrInvalidOption)
	}
	return s, nil
}

// Clone returns a shallow copy of the options map.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
