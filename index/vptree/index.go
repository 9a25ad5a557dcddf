package vptree

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/knn"
	"github.com/viant/sphere-knn/sphere"
)

// pruneSlack widens every pruning test so rounding in the metric can only
// cause extra visits, never a skipped neighbor.
const pruneSlack = 1e-6

// Index implements a great-circle kNN index using a VP-tree to prune search.
// It serializes using index.Encode and rebuilds the tree on load.
type Index struct {
	ids    []string
	points []sphere.Point
	root   *node
}

type node struct {
	idx   int // index into ids/points
	thr   float64
	left  *node
	right *node
}

// Build constructs the VP-tree.
func (i *Index) Build(ids []string, points []sphere.Point) error {
	if err := index.Validate(ids, points); err != nil {
		return fmt.Errorf("vptree: %w", err)
	}
	i.ids = append([]string(nil), ids...)
	i.points = append([]sphere.Point(nil), points...)
	if len(points) == 0 {
		i.root = nil
		return nil
	}
	idxs := make([]int, len(points))
	for k := range idxs {
		idxs[k] = k
	}
	i.root = i.build(idxs)
	return nil
}

func (i *Index) build(idxs []int) *node {
	if len(idxs) == 0 {
		return nil
	}
	// pick last as vantage point to avoid extra randomness
	vp := idxs[len(idxs)-1]
	idxs = idxs[:len(idxs)-1]
	if len(idxs) == 0 {
		return &node{idx: vp}
	}
	dists := make([]float64, len(idxs))
	for k, j := range idxs {
		dists[k] = sphere.Distance(i.points[vp], i.points[j])
	}
	mid := len(dists) / 2
	order := make([]int, len(idxs))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })
	thr := dists[order[mid]]
	leftIdxs := make([]int, 0, mid+1)
	rightIdxs := make([]int, 0, len(idxs)-(mid+1))
	for rank, k := range order {
		if rank <= mid {
			leftIdxs = append(leftIdxs, idxs[k])
		} else {
			rightIdxs = append(rightIdxs, idxs[k])
		}
	}
	return &node{
		idx:   vp,
		thr:   thr,
		left:  i.build(leftIdxs),
		right: i.build(rightIdxs),
	}
}

// Len returns the number of indexed points.
func (i *Index) Len() int { return len(i.points) }

// Query returns up to k ids ordered by ascending great-circle distance.
func (i *Index) Query(query sphere.Point, k int) ([]string, []float64, error) {
	return i.QueryWithin(query, k, math.Inf(1))
}

// QueryWithin returns up to k ids no farther than radius, nearest first.
func (i *Index) QueryWithin(query sphere.Point, k int, radius float64) ([]string, []float64, error) {
	if i.root == nil {
		return nil, nil, nil
	}
	if err := query.Validate(); err != nil {
		return nil, nil, fmt.Errorf("vptree: %w", err)
	}
	set, err := knn.NewWithin(index.Capacity(k, len(i.points)), radius)
	if err != nil {
		return nil, nil, err
	}
	if err := i.search(i.root, query, set); err != nil {
		return nil, nil, err
	}
	best, err := set.Extract()
	if err != nil {
		return nil, nil, err
	}
	ids, distances := index.Results(i.ids, best)
	return ids, distances, nil
}

func (i *Index) search(n *node, query sphere.Point, set *knn.NearestSet) error {
	if n == nil {
		return nil
	}
	d := sphere.Distance(query, i.points[n.idx])
	if err := set.Consider(n.idx, d); err != nil {
		return err
	}
	var err error
	visitLeft := func() {
		if bound, e := set.Bound(); e != nil {
			err = errors.Join(err, e)
		} else if d-bound <= n.thr+pruneSlack {
			err = errors.Join(err, i.search(n.left, query, set))
		}
	}
	visitRight := func() {
		if bound, e := set.Bound(); e != nil {
			err = errors.Join(err, e)
		} else if d+bound+pruneSlack >= n.thr {
			err = errors.Join(err, i.search(n.right, query, set))
		}
	}
	// nearer half first tightens the bound sooner
	if d < n.thr {
		visitLeft()
		visitRight()
	} else {
		visitRight()
		visitLeft()
	}
	return err
}

// MarshalBinary stores the points using index.Encode.
func (i *Index) MarshalBinary() ([]byte, error) {
	return index.Encode(i.ids, i.points)
}

// UnmarshalBinary loads points and rebuilds the VP-tree.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, points, err := index.Decode(data)
	if err != nil {
		return fmt.Errorf("vptree: %w", err)
	}
	return i.Build(ids, points)
}

var _ index.RangeIndex = (*Index)(nil)
