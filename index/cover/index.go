package cover

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/internal/cover/tree"
	"github.com/viant/sphere-knn/sphere"
)

const defaultBase = 1.3

// Magic prefixes serialized cover indexes.
var Magic = []byte("COV1")

// ErrNotCover is returned by UnmarshalBinary for blobs without the cover prefix.
var ErrNotCover = errors.New("cover: blob is not a cover index")

// Index implements index.Index with a cover tree.
type Index struct {
	base      float64
	bound     BoundStrategy
	distance  DistanceFunction
	parallel  int
	bestFirst bool

	ids    []string
	points []sphere.Point
	tree   *tree.Tree[int]
}

// New creates an empty cover index.
func New(opts ...Option) *Index {
	i := &Index{base: defaultBase, bound: BoundPerNode, distance: DistanceFunctionGreatCircle}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Build inserts every point into a fresh tree.
func (i *Index) Build(ids []string, points []sphere.Point) error {
	if err := index.Validate(ids, points); err != nil {
		return fmt.Errorf("cover: %w", err)
	}
	if i.base <= 1 {
		i.base = defaultBase
	}
	i.ids = append([]string(nil), ids...)
	i.points = append([]sphere.Point(nil), points...)
	t := tree.NewTree[int](i.base, i.distance)
	t.SetBoundStrategy(i.bound)
	for j, p := range i.points {
		t.Insert(j, tree.NewPoint(p))
	}
	if i.parallel > 0 && i.bound == BoundPerNode {
		if err := t.WarmRadii(context.Background(), i.parallel); err != nil {
			return fmt.Errorf("cover: %w", err)
		}
	}
	i.tree = t
	return nil
}

// Len returns the number of indexed points.
func (i *Index) Len() int { return len(i.points) }

// Query returns up to k ids ordered by ascending great-circle distance, ties
// in build order. The chord metric only shapes the tree and its pruning.
func (i *Index) Query(query sphere.Point, k int) ([]string, []float64, error) {
	return i.QueryWithin(query, k, math.Inf(1))
}

// QueryWithin returns up to k ids no farther than radius, nearest first.
func (i *Index) QueryWithin(query sphere.Point, k int, radius float64) ([]string, []float64, error) {
	if i.tree == nil || len(i.points) == 0 {
		return nil, nil, nil
	}
	if err := query.Validate(); err != nil {
		return nil, nil, fmt.Errorf("cover: %w", err)
	}
	k = index.Capacity(k, len(i.points))
	q := tree.NewPoint(query)
	var (
		neighbors []*tree.Neighbor
		err       error
	)
	if i.bestFirst {
		neighbors, err = i.tree.KNearestNeighborsBestFirstWithin(q, k, radius)
	} else {
		neighbors, err = i.tree.KNearestNeighborsWithin(q, k, radius)
	}
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(neighbors))
	distances := make([]float64, len(neighbors))
	for n, nb := range neighbors {
		ids[n] = i.ids[i.tree.Value(nb.Point)]
		distances[n] = nb.Distance
	}
	return ids, distances, nil
}

// MarshalBinary writes Magic followed by the index.Encode payload.
func (i *Index) MarshalBinary() ([]byte, error) {
	payload, err := index.Encode(i.ids, i.points)
	if err != nil {
		return nil, err
	}
	return append(append([]byte(nil), Magic...), payload...), nil
}

// UnmarshalBinary restores points and rebuilds the tree with the current options.
func (i *Index) UnmarshalBinary(data []byte) error {
	if !IsCoverBlob(data) {
		return ErrNotCover
	}
	ids, points, err := index.Decode(data[len(Magic):])
	if err != nil {
		return fmt.Errorf("cover: %w", err)
	}
	return i.Build(ids, points)
}

// IsCoverBlob reports whether data was written by MarshalBinary.
func IsCoverBlob(data []byte) bool {
	return len(data) >= len(Magic) && bytes.Equal(data[:len(Magic)], Magic)
}

var _ index.RangeIndex = (*Index)(nil)
