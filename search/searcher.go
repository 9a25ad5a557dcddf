package search

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/index/cover"
	"github.com/viant/sphere-knn/sphere"
)

// Match is one neighbor.
type Match struct {
	ID       string  `json:"id" yaml:"id"`
	Distance float64 `json:"distance" yaml:"distance"`
}

// Result holds the neighbors of one query, nearest first.
type Result struct {
	K       int     `json:"k" yaml:"k"`
	Matches []Match `json:"matches" yaml:"matches"`
}

// Complete reports whether K neighbors were found; K <= 0 asks for all points.
func (r Result) Complete() bool {
	return r.K <= 0 || len(r.Matches) == r.K
}

// IDs returns the match ids in order.
func (r Result) IDs() []string {
	ids := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		ids[i] = m.ID
	}
	return ids
}

// Searcher answers queries against a built index.
type Searcher struct {
	idx         index.Index
	logger      *Logger
	parallelism int
	coverOpts   []cover.Option
}

// New wraps an already built index.
func New(idx index.Index, opts ...Option) (*Searcher, error) {
	if idx == nil {
		return nil, ErrNilIndex
	}
	s := newSearcher(opts)
	s.idx = idx
	return s, nil
}

// Build creates an index of the given kind over points and wraps it.
func Build(ctx context.Context, kind Kind, ids []string, points []sphere.Point, opts ...Option) (*Searcher, error) {
	s := newSearcher(opts)
	resolved := kind.Resolve(len(points))
	idx, err := NewIndex(resolved, len(points), s.coverOpts...)
	if err == nil {
		err = idx.Build(ids, points)
	}
	s.logger.LogBuild(ctx, string(resolved), len(points), err)
	if err != nil {
		return nil, err
	}
	s.idx = idx
	return s, nil
}

func newSearcher(opts []Option) *Searcher {
	s := &Searcher{logger: NoopLogger(), parallelism: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Index returns the underlying index.
func (s *Searcher) Index() index.Index { return s.idx }

// Search returns up to k neighbors of query; k <= 0 returns every point.
func (s *Searcher) Search(ctx context.Context, query sphere.Point, k int) (Result, error) {
	return s.run(ctx, k, func() ([]string, []float64, error) {
		return s.idx.Query(query, k)
	})
}

// SearchWithin returns up to k neighbors of query no farther than radius;
// k <= 0 returns every point within radius. Indexes implementing
// index.RangeIndex prune with the radius from the first visit.
func (s *Searcher) SearchWithin(ctx context.Context, query sphere.Point, k int, radius float64) (Result, error) {
	return s.run(ctx, k, func() ([]string, []float64, error) {
		if ranged, ok := s.idx.(index.RangeIndex); ok {
			return ranged.QueryWithin(query, k, radius)
		}
		if math.IsNaN(radius) || radius < 0 {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
		}
		ids, distances, err := s.idx.Query(query, 0)
		if err != nil {
			return nil, nil, err
		}
		n := sort.Search(len(distances), func(i int) bool { return distances[i] > radius })
		n = index.Capacity(k, n)
		return ids[:n], distances[:n], nil
	})
}

func (s *Searcher) run(ctx context.Context, k int, query func() ([]string, []float64, error)) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ids, distances, err := query()
	if err != nil {
		s.logger.LogSearch(ctx, k, 0, err)
		return Result{}, fmt.Errorf("search: %w", err)
	}
	result := Result{K: k, Matches: make([]Match, len(ids))}
	for i, id := range ids {
		result.Matches[i] = Match{ID: id, Distance: distances[i]}
	}
	s.logger.LogSearch(ctx, k, len(ids), nil)
	return result, nil
}

// SearchBatch runs every query with its own nearest set, at most
// parallelism at a time. Results keep the order of queries.
func (s *Searcher) SearchBatch(ctx context.Context, queries []sphere.Point, k int) ([]Result, error) {
	results := make([]Result, len(queries))
	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, q := range queries {
		g.Go(func() error {
			r, err := s.Search(gctx, q, k)
			if err != nil {
				failed.Add(1)
				return fmt.Errorf("query %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}
	err := g.Wait()
	s.logger.LogBatch(ctx, len(queries), int(failed.Load()))
	if err != nil {
		return nil, err
	}
	return results, nil
}
