package search

import (
	"runtime"

	"github.com/viant/sphere-knn/index/cover"
)

// Option configures a Searcher.
type Option func(*Searcher)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithParallelism bounds concurrent queries in SearchBatch; values < 1 use GOMAXPROCS.
func WithParallelism(n int) Option {
	return func(s *Searcher) {
		if n < 1 {
			n = runtime.GOMAXPROCS(0)
		}
		s.parallelism = n
	}
}

// WithCoverOptions configures cover indexes created by Build.
func WithCoverOptions(opts ...cover.Option) Option {
	return func(s *Searcher) { s.coverOpts = append(s.coverOpts, opts...) }
}
