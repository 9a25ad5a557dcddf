package bruteforce

import (
	"fmt"
	"math"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/knn"
	"github.com/viant/sphere-knn/sphere"
)

// Index is a brute-force great-circle index.
type Index struct {
	ids    []string
	points []sphere.Point
}

// Build loads ids and points.
func (i *Index) Build(ids []string, points []sphere.Point) error {
	if err := index.Validate(ids, points); err != nil {
		return fmt.Errorf("bruteforce: %w", err)
	}
	if len(ids) == 0 {
		i.ids, i.points = nil, nil
		return nil
	}
	i.ids = append([]string(nil), ids...)
	i.points = append([]sphere.Point(nil), points...)
	return nil
}

// Len returns the number of indexed points.
func (i *Index) Len() int { return len(i.points) }

// Query returns the k nearest points by great-circle distance.
func (i *Index) Query(query sphere.Point, k int) ([]string, []float64, error) {
	return i.QueryWithin(query, k, math.Inf(1))
}

// QueryWithin returns the k nearest points no farther than radius.
func (i *Index) QueryWithin(query sphere.Point, k int, radius float64) ([]string, []float64, error) {
	if len(i.points) == 0 {
		return nil, nil, nil
	}
	if err := query.Validate(); err != nil {
		return nil, nil, fmt.Errorf("bruteforce: %w", err)
	}
	set, err := knn.NewWithin(index.Capacity(k, len(i.points)), radius)
	if err != nil {
		return nil, nil, err
	}
	for j, p := range i.points {
		if err := set.Consider(j, sphere.Distance(query, p)); err != nil {
			return nil, nil, err
		}
	}
	best, err := set.Extract()
	if err != nil {
		return nil, nil, err
	}
	ids, distances := index.Results(i.ids, best)
	return ids, distances, nil
}

// MarshalBinary stores the points using index.Encode.
func (i *Index) MarshalBinary() ([]byte, error) {
	return index.Encode(i.ids, i.points)
}

// UnmarshalBinary restores the index from bytes.
func (i *Index) UnmarshalBinary(data []byte) error {
	ids, points, err := index.Decode(data)
	if err != nil {
		return fmt.Errorf("bruteforce: %w", err)
	}
	return i.Build(ids, points)
}

var _ index.RangeIndex = (*Index)(nil)
