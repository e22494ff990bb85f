package similarity

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a configured Measure from raw options.
type Factory func(opts Options) (Measure, error)

// Registry resolves measure names to factories. Lookup is case-insensitive,
// so workflow documents may spell "cosinegreedy" or "CosineGreedy".
type Registry struct {
	factories map[string]Factory
	names     map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		names:     make(map[string]string),
	}
}

// Register adds a factory under the given name, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	key := strings.ToLower(name)
	r.factories[key] = factory
	r.names[key] = name
}

// Has reports whether a measure name is registered, ignoring case.
func (r *Registry) Has(name string) bool {
	_, ok := r.factories[strings.ToLower(name)]
	return ok
}

// Names returns the canonical registered measure names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.names))
	for _, name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named measure with the given options.
func (r *Registry) New(name string, opts Options) (Measure, error) {
	factory, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("resolving measure %q: %w", name, ErrUnknownMeasure)
	}

	measure, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("building measure %q: %w", name, err)
	}
	return measure, nil
}

// DefaultRegistry returns a registry with every built-in measure registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("CosineGreedy", func(opts Options) (Measure, error) { return NewCosineGreedy(opts) })
	r.Register("ModifiedCosine", func(opts Options) (Measure, error) { return NewModifiedCosine(opts) })
	r.Register("NeutralLossesCosine", func(opts Options) (Measure, error) { return NewNeutralLossesCosine(opts) })
	r.Register("PrecursorMzMatch", func(opts Options) (Measure, error) { return NewPrecursorMzMatch(opts) })
	r.Register("ParentMassMatch", func(opts Options) (Measure, error) { return NewParentMassMatch(opts) })
	r.Register("IntersectMz", func(opts Options) (Measure, error) { return NewIntersectMz(opts) })
	return r
}
