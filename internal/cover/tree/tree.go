package tree

// The layout follows github.com/viant/gds/tree/cover; insertion starts from a
// root placed above the metric's diameter so every node keeps the cover
// invariant and the level radius stays a valid bound.

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/viant/sphere-knn/internal/pq"
	"github.com/viant/sphere-knn/knn"
)

// pruneSlack is subtracted from every lower bound before it is compared with
// the set bound, so rounding in the metric can only cause extra visits.
const pruneSlack = 1e-5

// Tree represents a cover tree over sphere points, each carrying a value of
// type T. The tree is organized by its distance function; queries always rank
// by great-circle angle and return it as Neighbor.Distance.
type Tree[T any] struct {
	root             *Node
	base             float64
	distanceFuncName DistanceFunction
	distanceFunc     DistanceFunc
	values           []T
	indexMap         map[int32]*Point
	version          uint64
	boundStrategy    BoundStrategy
	mu               sync.RWMutex
}

// BoundStrategy selects which lower-bound radius to use when pruning.
type BoundStrategy int

const (
	// BoundPerNode uses cached per-node subtree radius (tighter pruning).
	BoundPerNode BoundStrategy = iota
	// BoundLevel uses a geometric bound derived from the node level.
	BoundLevel
)

// NewTree constructs a cover tree with the provided base and distance metric.
func NewTree[T any](base float64, distanceFn DistanceFunction) *Tree[T] {
	if base <= 1 {
		base = 1.3
	}
	fn := distanceFn.Function()
	if fn == nil {
		fn = DistanceFunctionGreatCircle.Function()
		distanceFn = DistanceFunctionGreatCircle
	}
	return &Tree[T]{
		base:             base,
		distanceFuncName: distanceFn,
		distanceFunc:     fn,
		boundStrategy:    BoundPerNode,
	}
}

// SetBoundStrategy switches the pruning strategy at runtime.
func (t *Tree[T]) SetBoundStrategy(s BoundStrategy) { t.boundStrategy = s }

// Distance returns the metric the tree was built with.
func (t *Tree[T]) Distance() DistanceFunction { return t.distanceFuncName }

// Len returns the number of inserted points.
func (t *Tree[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Insert adds a new value/point pair to the tree and returns its index.
func (t *Tree[T]) Insert(value T, point *Point) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	point.index = int32(len(t.values))
	t.values = append(t.values, value)
	if t.indexMap == nil {
		t.indexMap = make(map[int32]*Point)
	}
	t.indexMap[point.index] = point
	if t.root == nil {
		node := NewNode(point, t.rootLevel(), t.base)
		t.root = &node
	} else {
		t.insert(t.root, point)
	}
	t.version++
	return point.index
}

// rootLevel is the smallest level whose cover radius exceeds the metric's
// diameter, so any point can hang below the root.
func (t *Tree[T]) rootLevel() int32 {
	return int32(math.Floor(math.Log(t.distanceFuncName.MaxDistance())/math.Log(t.base))) + 1
}

// FindPointByIndex returns the point for a stored index.
func (t *Tree[T]) FindPointByIndex(index int32) *Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if point, ok := t.indexMap[index]; ok {
		return point
	}
	return nil
}

// Value returns the stored value for the given point.
func (t *Tree[T]) Value(point *Point) T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var zero T
	if point == nil || !point.HasValue() || int(point.index) >= len(t.values) {
		return zero
	}
	return t.values[point.index]
}

// Values resolves the stored values for the provided points.
func (t *Tree[T]) Values(points []*Point) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]T, 0, len(points))
	for _, point := range points {
		if point == nil || point.index < 0 || int(point.index) >= len(t.values) {
			continue
		}
		result = append(result, t.values[point.index])
	}
	return result
}

// insert descends while some child still covers the point at its own
// level, then attaches the point one level below the last covering node.
func (t *Tree[T]) insert(node *Node, point *Point) {
	for {
		childLevel := math.Pow(t.base, float64(node.level-1))
		descended := false
		for i := range node.children {
			child := &node.children[i]
			if t.distanceFunc(point, child.point) < childLevel {
				node = child
				descended = true
				break
			}
		}
		if !descended {
			node.children = append(node.children, NewNode(point, node.level-1, t.base))
			return
		}
	}
}

// KNearestNeighbors runs a depth-first kNN search.
func (t *Tree[T]) KNearestNeighbors(point *Point, k int) ([]*Neighbor, error) {
	return t.KNearestNeighborsWithin(point, k, math.Inf(1))
}

// KNearestNeighborsWithin runs a depth-first kNN search that only returns
// neighbors no farther than radius and prunes with it from the start.
func (t *Tree[T]) KNearestNeighborsWithin(point *Point, k int, radius float64) ([]*Neighbor, error) {
	if t.boundStrategy == BoundPerNode {
		t.mu.Lock()
		defer t.mu.Unlock()
	} else {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	if t.root == nil {
		return nil, nil
	}
	set, err := knn.NewWithin(k, radius)
	if err != nil {
		return nil, err
	}
	if err := t.kNearestNeighbors(t.root, t.distanceFunc(point, t.root.point), point, set); err != nil {
		return nil, err
	}
	return t.neighbors(set)
}

func (t *Tree[T]) kNearestNeighbors(node *Node, dc float64, point *Point, set *knn.NearestSet) error {
	if err := set.Consider(int(node.point.index), t.angle(point, node.point, dc)); err != nil {
		return err
	}
	if len(node.children) == 0 {
		return nil
	}
	type childDist struct {
		child *Node
		dist  float64
	}
	cds := make([]childDist, 0, len(node.children))
	for i := range node.children {
		child := &node.children[i]
		cds = append(cds, childDist{child: child, dist: t.distanceFunc(point, child.point)})
	}
	sort.Slice(cds, func(i, j int) bool { return cds[i].dist < cds[j].dist })
	for _, cd := range cds {
		worst, err := set.Bound()
		if err != nil {
			return err
		}
		if t.lowerBound(cd.dist, cd.child) > worst {
			continue
		}
		if err := t.kNearestNeighbors(cd.child, cd.dist, point, set); err != nil {
			return err
		}
	}
	return nil
}

// KNearestNeighborsBestFirst performs a best-first search with a node priority queue.
func (t *Tree[T]) KNearestNeighborsBestFirst(point *Point, k int) ([]*Neighbor, error) {
	return t.KNearestNeighborsBestFirstWithin(point, k, math.Inf(1))
}

// KNearestNeighborsBestFirstWithin is the best-first search limited to radius.
func (t *Tree[T]) KNearestNeighborsBestFirstWithin(point *Point, k int, radius float64) ([]*Neighbor, error) {
	if t.boundStrategy == BoundPerNode {
		t.mu.Lock()
		defer t.mu.Unlock()
	} else {
		t.mu.RLock()
		defer t.mu.RUnlock()
	}
	if t.root == nil {
		return nil, nil
	}
	set, err := knn.NewWithin(k, radius)
	if err != nil {
		return nil, err
	}
	queue := pq.New(func(a, b nodeItem) bool { return a.lb < b.lb }, 64)
	rootDist := t.distanceFunc(point, t.root.point)
	queue.Push(nodeItem{node: t.root, lb: t.lowerBound(rootDist, t.root), centerDist: rootDist})

	for queue.Len() > 0 {
		worst, err := set.Bound()
		if err != nil {
			return nil, err
		}
		top, _ := queue.Pop()
		if top.lb > worst {
			break
		}
		if err := set.Consider(int(top.node.point.index), t.angle(point, top.node.point, top.centerDist)); err != nil {
			return nil, err
		}
		if worst, err = set.Bound(); err != nil {
			return nil, err
		}
		for i := range top.node.children {
			child := &top.node.children[i]
			cd := t.distanceFunc(point, child.point)
			lb := t.lowerBound(cd, child)
			if lb > worst {
				continue
			}
			queue.Push(nodeItem{node: child, lb: lb, centerDist: cd})
		}
	}
	return t.neighbors(set)
}

// neighbors extracts the set and resolves candidates to points, nearest first.
func (t *Tree[T]) neighbors(set *knn.NearestSet) ([]*Neighbor, error) {
	best, err := set.Extract()
	if err != nil {
		return nil, err
	}
	knn.Sort(best)
	result := make([]*Neighbor, len(best))
	for i, c := range best {
		result[i] = &Neighbor{Point: t.indexMap[int32(c.Index)], Distance: c.Distance}
	}
	return result, nil
}

// WarmRadii computes every cached subtree radius, fanning out over the root's
// children with at most parallelism goroutines. Queries with BoundPerNode
// then find the radii ready.
func (t *Tree[T]) WarmRadii(ctx context.Context, parallelism int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.root == nil {
		return nil
	}
	if parallelism < 1 {
		parallelism = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := range t.root.children {
		child := &t.root.children[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t.ensureRadius(child)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	t.ensureRadius(t.root)
	return nil
}

func (t *Tree[T]) ensureRadius(n *Node) float64 {
	if n == nil {
		return 0
	}
	if n.radiusComputed == t.version {
		return n.radius
	}
	if len(n.children) == 0 {
		n.radius = 0
		n.radiusComputed = t.version
		return 0
	}
	maxR := float64(0)
	for i := range n.children {
		child := &n.children[i]
		cr := t.ensureRadius(child)
		d := t.distanceFunc(n.point, child.point) + cr
		if d > maxR {
			maxR = d
		}
	}
	n.radius = maxR
	n.radiusComputed = t.version
	return maxR
}

func (t *Tree[T]) nodeCoverRadius(n *Node) float64 { return t.ensureRadius(n) }

func (t *Tree[T]) levelCoverRadius(n *Node) float64 {
	if t.base <= 1 || n == nil {
		return math.MaxFloat64
	}
	return n.baseLevel * t.base / (t.base - 1)
}

// angle returns the great-circle distance between query and p, reusing d when
// the tree metric already is the angle.
func (t *Tree[T]) angle(query, p *Point, d float64) float64 {
	if t.distanceFuncName == DistanceFunctionGreatCircle {
		return d
	}
	return GreatCircleDistance(query, p)
}

// lowerBound is the smallest great-circle distance from the query to any
// point below n, given the tree-metric distance d to n's center.
func (t *Tree[T]) lowerBound(d float64, n *Node) float64 {
	return t.distanceFuncName.ToAngle(d - t.boundRadius(n) - pruneSlack)
}

func (t *Tree[T]) boundRadius(n *Node) float64 {
	if t.boundStrategy == BoundLevel {
		return t.levelCoverRadius(n)
	}
	return t.nodeCoverRadius(n)
}

type nodeItem struct {
	node       *Node
	lb         float64
	centerDist float64
}
