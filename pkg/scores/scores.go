// Package scores accumulates pairwise similarity results in a sparse
// matrix over (reference, query) coordinates. The first measure
// initializes the coordinate set; later measures extend existing
// coordinates with new columns, and range masks shrink the set between
// computations. All columns always share one coordinate set.
package scores

import (
	"context"
	"fmt"

	"github.com/spectralworks/specmatch/pkg/similarity"
	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// Coord is one retained matrix coordinate.
type Coord struct {
	Ref   int
	Query int
}

// Matrix is a sparse score matrix. Coordinates keep the row-major order
// they were produced in, so iteration and exports are deterministic.
type Matrix struct {
	refs    []*spectrum.Spectrum
	queries []*spectrum.Spectrum

	coords  []Coord
	columns map[string][]float64
	names   []string

	symmetric bool
	workers   int
}

// Initialize evaluates the first measure densely over the full
// reference by query grid and retains the coordinates where the measure's
// primary field is nonzero. When symmetric is true and the measure is
// symmetric, only the upper triangle is computed and mirrored.
func Initialize(ctx context.Context, m similarity.Measure, refs, queries []*spectrum.Spectrum, symmetric bool, workers int) (*Matrix, error) {
	grid, err := similarity.DenseArray(ctx, m, refs, queries, symmetric, workers)
	if err != nil {
		return nil, fmt.Errorf("initializing scores with %s: %w", m.Name(), err)
	}

	x := &Matrix{
		refs:      refs,
		queries:   queries,
		columns:   make(map[string][]float64),
		symmetric: symmetric,
		workers:   workers,
	}

	primary := m.Fields()[0]
	var kept []similarity.Score
	for i := range grid {
		for j, score := range grid[i] {
			if similarity.FieldValue(score, primary) == 0 {
				continue
			}
			x.coords = append(x.coords, Coord{Ref: i, Query: j})
			kept = append(kept, score)
		}
	}

	x.addColumns(m, kept)
	return x, nil
}

// Extend evaluates a measure at exactly the current coordinates and adds
// its columns. The coordinate set never changes. Re-adding an existing
// column name overwrites its values and moves it to the end of the
// chronology. For symmetric matrices and symmetric measures, mirrored
// coordinate pairs are computed once and shared.
func (x *Matrix) Extend(ctx context.Context, m similarity.Measure) error {
	mirror := x.symmetric && m.Symmetric()

	rows := make([]int, 0, len(x.coords))
	cols := make([]int, 0, len(x.coords))
	lookup := make(map[Coord]int, len(x.coords))
	eval := make([]int, len(x.coords))
	for i, c := range x.coords {
		key := c
		if mirror && key.Query < key.Ref {
			key = Coord{Ref: c.Query, Query: c.Ref}
		}
		if idx, ok := lookup[key]; ok {
			eval[i] = idx
			continue
		}
		idx := len(rows)
		lookup[key] = idx
		rows = append(rows, key.Ref)
		cols = append(cols, key.Query)
		eval[i] = idx
	}

	result, err := similarity.SparseArray(ctx, m, x.refs, x.queries, rows, cols, x.workers)
	if err != nil {
		return fmt.Errorf("extending scores with %s: %w", m.Name(), err)
	}

	scores := make([]similarity.Score, len(x.coords))
	for i := range x.coords {
		scores[i] = result[eval[i]]
	}

	x.addColumns(m, scores)
	return nil
}

// addColumns stores one value column per measure field, parallel to coords.
func (x *Matrix) addColumns(m similarity.Measure, scores []similarity.Score) {
	fields := m.Fields()
	for i, name := range similarity.ColumnNames(m) {
		values := make([]float64, len(scores))
		for k, score := range scores {
			values[k] = similarity.FieldValue(score, fields[i])
		}

		if _, exists := x.columns[name]; exists {
			x.removeName(name)
		}
		x.columns[name] = values
		x.names = append(x.names, name)
	}
}

func (x *Matrix) removeName(name string) {
	for i, n := range x.names {
		if n == name {
			x.names = append(x.names[:i], x.names[i+1:]...)
			return
		}
	}
}

// FilterByRange retains only the coordinates whose value in the named
// column lies within [low, high]. A nil bound leaves that side unbounded.
// An empty name targets the chronologically last column.
func (x *Matrix) FilterByRange(name string, low, high *float64) error {
	if name == "" {
		if len(x.names) == 0 {
			return fmt.Errorf("masking an empty matrix: %w", ErrUnknownScoreName)
		}
		name = x.names[len(x.names)-1]
	}
	target, ok := x.columns[name]
	if !ok {
		return fmt.Errorf("masking by %q: %w", name, ErrUnknownScoreName)
	}

	keep := make([]int, 0, len(x.coords))
	for i, v := range target {
		if low != nil && v < *low {
			continue
		}
		if high != nil && v > *high {
			continue
		}
		keep = append(keep, i)
	}

	coords := make([]Coord, len(keep))
	for i, k := range keep {
		coords[i] = x.coords[k]
	}
	x.coords = coords

	for name, values := range x.columns {
		pruned := make([]float64, len(keep))
		for i, k := range keep {
			pruned[i] = values[k]
		}
		x.columns[name] = pruned
	}
	return nil
}

// Len returns the number of retained coordinates.
func (x *Matrix) Len() int {
	return len(x.coords)
}

// Coords returns the retained coordinates in matrix order.
func (x *Matrix) Coords() []Coord {
	out := make([]Coord, len(x.coords))
	copy(out, x.coords)
	return out
}

// Names returns the column names in the order they were added.
func (x *Matrix) Names() []string {
	out := make([]string, len(x.names))
	copy(out, x.names)
	return out
}

// Column returns the values of one column, parallel to Coords.
func (x *Matrix) Column(name string) ([]float64, error) {
	values, ok := x.columns[name]
	if !ok {
		return nil, fmt.Errorf("reading column %q: %w", name, ErrUnknownScoreName)
	}
	out := make([]float64, len(values))
	copy(out, values)
	return out, nil
}

// Symmetric reports whether references and queries are the same collection.
func (x *Matrix) Symmetric() bool {
	return x.symmetric
}
