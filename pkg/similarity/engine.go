package similarity

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/spectralworks/specmatch/pkg/spectrum"
)

// DenseArray evaluates a measure at every (reference, query) coordinate,
// returning a len(refs) by len(queries) matrix. When symmetric is true and
// the measure is symmetric, only the upper triangle is computed and each
// result mirrors to the lower one. Rows parallelize across workers; the
// result is deterministic regardless of worker count.
func DenseArray(ctx context.Context, m Measure, refs, queries []*spectrum.Spectrum, symmetric bool, workers int) ([][]Score, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([][]Score, len(refs))
	for i := range out {
		out[i] = make([]Score, len(queries))
	}

	half := symmetric && m.Symmetric() && len(refs) == len(queries)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range refs {
		i := i
		g.Go(func() error {
			start := 0
			if half {
				start = i
			}
			for j := start; j < len(queries); j++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				score, err := m.Pair(refs[i], queries[j])
				if err != nil {
					return fmt.Errorf("scoring pair (%d, %d): %w", i, j, err)
				}
				out[i][j] = score
				if half && i != j {
					out[j][i] = score
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// SparseArray evaluates a measure at exactly the given coordinates and
// returns the scores in the same order. rows and cols must have equal
// length. Coordinates split into contiguous chunks across workers.
func SparseArray(ctx context.Context, m Measure, refs, queries []*spectrum.Spectrum, rows, cols []int, workers int) ([]Score, error) {
	if len(rows) != len(cols) {
		return nil, fmt.Errorf("coordinate slices differ in length: %d rows vs %d cols", len(rows), len(cols))
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	n := len(rows)
	out := make([]Score, n)
	if n == 0 {
		return out, nil
	}

	chunk := (n + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		start := start
		end := min(start+chunk, n)
		g.Go(func() error {
			for k := start; k < end; k++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				score, err := m.Pair(refs[rows[k]], queries[cols[k]])
				if err != nil {
					return fmt.Errorf("scoring pair (%d, %d): %w", rows[k], cols[k], err)
				}
				out[k] = score
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
