package spectrum

import (
	"sort"
	"strconv"
	"strings"
)

// keyAliases maps alternative metadata spellings to their canonical keys.
// Applied after lowercasing, so only lowercase entries belong here.
var keyAliases = map[string]string{
	"precursormz": "precursor_mz",
}

// Metadata holds the key-value annotations of a spectrum. Keys are
// harmonized on every write: lowercased, trimmed, inner spaces replaced
// with underscores, and known alternative spellings mapped to canonical
// keys. Values are heterogeneous; a nil value marks a field that was looked
// for but could not be derived.
type Metadata map[string]any

// NewMetadata builds a harmonized metadata mapping from a raw one.
func NewMetadata(values map[string]any) Metadata {
	m := make(Metadata, len(values))
	for key, value := range values {
		m.Set(key, value)
	}
	return m
}

// HarmonizeKey returns the canonical spelling for a metadata key.
func HarmonizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, " ", "_")
	if canonical, ok := keyAliases[key]; ok {
		return canonical
	}
	return key
}

// Set stores value under the harmonized key. Ionmode values are lowercased
// so "Negative" and "negative" compare equal downstream.
func (m Metadata) Set(key string, value any) {
	key = HarmonizeKey(key)
	if key == "ionmode" {
		if s, ok := value.(string); ok {
			value = strings.ToLower(s)
		}
	}
	m[key] = value
}

// Get returns the value stored under the harmonized key, or nil.
func (m Metadata) Get(key string) any {
	return m[HarmonizeKey(key)]
}

// Has reports whether the harmonized key is present, even with a nil value.
func (m Metadata) Has(key string) bool {
	_, ok := m[HarmonizeKey(key)]
	return ok
}

// Float reads the value under key as a number. Numeric types convert
// directly; strings are parsed after trimming. Anything else, including an
// absent key, reports false.
func (m Metadata) Float(key string) (float64, bool) {
	return ToFloat(m.Get(key))
}

// ToFloat converts a heterogeneous metadata value to a float64. Numeric
// types convert directly; strings are parsed after trimming.
func ToFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Keys returns all keys sorted, for deterministic export.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy. Slice values are copied so mutating
// one map never leaks into the other.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for key, value := range m {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []float64:
		c := make([]float64, len(v))
		copy(c, v)
		return c
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		c := make([]string, len(v))
		copy(c, v)
		return c
	}
	return value
}
