package nearest

import (
	"runtime"
	"strconv"
	"strings"

	"github.com/viant/sphere-knn/index/cover"
	"github.com/viant/sphere-knn/search"
)

type indexOptions struct {
	kind  search.Kind
	cover coverOptions
}

type coverOptions struct {
	base         float64
	useBound     bool
	bound        cover.BoundStrategy
	useDistance  bool
	distance     cover.DistanceFunction
	bestFirst    bool
	parallel     int
	autoParallel bool
}

func (c coverOptions) toIndexOptions() []cover.Option {
	var opts []cover.Option
	if c.base > 1 {
		opts = append(opts, cover.WithBase(c.base))
	}
	if c.useBound {
		opts = append(opts, cover.WithBoundStrategy(c.bound))
	}
	if c.useDistance {
		opts = append(opts, cover.WithDistance(c.distance))
	}
	if c.bestFirst {
		opts = append(opts, cover.WithBestFirst(true))
	}
	switch {
	case c.autoParallel:
		opts = append(opts, cover.WithBuildParallelism(runtime.GOMAXPROCS(0)))
	case c.parallel > 0:
		opts = append(opts, cover.WithBuildParallelism(c.parallel))
	}
	return opts
}

// parseIndexOptions reads key=value module arguments; unknown keys and
// malformed values are ignored.
func parseIndexOptions(args []string) indexOptions {
	opts := indexOptions{kind: search.KindAuto}
	for _, raw := range args {
		key, val, ok := strings.Cut(strings.TrimSpace(raw), "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.Trim(strings.TrimSpace(val), `'"`)
		lower := strings.ToLower(val)
		switch key {
		case "index":
			if kind, err := search.ParseKind(val); err == nil {
				opts.kind = kind
			}
		case "cover_base":
			if f, err := strconv.ParseFloat(val, 64); err == nil && f > 1 {
				opts.cover.base = f
			}
		case "cover_bound":
			switch lower {
			case "level", "boundlevel":
				opts.cover.bound = cover.BoundLevel
				opts.cover.useBound = true
			case "per_node", "pernode", "node":
				opts.cover.bound = cover.BoundPerNode
				opts.cover.useBound = true
			}
		case "cover_distance":
			switch lower {
			case "great_circle", "greatcircle", "angle":
				opts.cover.distance = cover.DistanceFunctionGreatCircle
				opts.cover.useDistance = true
			case "chord", "euclidean", "l2":
				opts.cover.distance = cover.DistanceFunctionChord
				opts.cover.useDistance = true
			}
		case "cover_search":
			switch lower {
			case "best_first", "bestfirst":
				opts.cover.bestFirst = true
			case "depth_first", "depthfirst":
				opts.cover.bestFirst = false
			}
		case "cover_parallel":
			switch lower {
			case "", "0", "off":
				opts.cover.parallel = 0
				opts.cover.autoParallel = false
			case "auto":
				opts.cover.autoParallel = true
				opts.cover.parallel = 0
			default:
				if n, err := strconv.Atoi(lower); err == nil {
					opts.cover.parallel = max(n, 0)
					opts.cover.autoParallel = false
				}
			}
		}
	}
	return opts
}
