package index

import "github.com/viant/sphere-knn/sphere"

// Index defines a nearest-neighbor index over sphere points with basic
// lifecycle methods. It enables building from (id, point) pairs, kNN queries,
// and binary serialization for persistence.
type Index interface {
	// Build constructs the index from the given ids and points.
	// ids and points must have the same length.
	Build(ids []string, points []sphere.Point) error

	// Query runs a kNN search with the provided query point and returns up to
	// k matches as parallel slices of ids and great-circle distances, ordered
	// by ascending distance. k <= 0 returns every indexed point.
	Query(query sphere.Point, k int) (ids []string, distances []float64, err error)

	// MarshalBinary serializes the index into a byte slice.
	MarshalBinary() ([]byte, error)

	// UnmarshalBinary reconstructs the index from a serialized byte slice.
	UnmarshalBinary(data []byte) error
}

// RangeIndex is an Index that can start pruning from a distance limit.
type RangeIndex interface {
	Index

	// QueryWithin is Query restricted to points no farther than radius;
	// the radius is the pruning bound until k matches are held.
	QueryWithin(query sphere.Point, k int, radius float64) (ids []string, distances []float64, err error)
}
