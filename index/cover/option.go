package cover

import "github.com/viant/sphere-knn/internal/cover/tree"

// BoundStrategy selects the pruning radius.
type BoundStrategy = tree.BoundStrategy

// DistanceFunction selects the tree metric.
type DistanceFunction = tree.DistanceFunction

const (
	BoundPerNode = tree.BoundPerNode
	BoundLevel   = tree.BoundLevel

	DistanceFunctionGreatCircle = tree.DistanceFunctionGreatCircle
	DistanceFunctionChord       = tree.DistanceFunctionChord
)

// Option configures an Index.
type Option func(*Index)

// WithBase sets the cover-tree base; values <= 1 keep the default.
func WithBase(base float64) Option {
	return func(i *Index) {
		if base > 1 {
			i.base = base
		}
	}
}

// WithBoundStrategy sets the pruning radius strategy.
func WithBoundStrategy(s BoundStrategy) Option {
	return func(i *Index) { i.bound = s }
}

// WithDistance sets the metric used to organize the tree.
func WithDistance(d DistanceFunction) Option {
	return func(i *Index) {
		if d.Function() != nil {
			i.distance = d
		}
	}
}

// WithBuildParallelism bounds the goroutines used to warm subtree radii after
// a build; 0 skips warming.
func WithBuildParallelism(n int) Option {
	return func(i *Index) {
		if n < 0 {
			n = 0
		}
		i.parallel = n
	}
}

// WithBestFirst switches queries to best-first traversal.
func WithBestFirst(enabled bool) Option {
	return func(i *Index) { i.bestFirst = enabled }
}
