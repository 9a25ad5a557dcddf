package sphere

import (
	"context"
)

// Place is a named location stored in a Store.
type Place struct {
	// ID is the logical identifier of the place.
	ID string

	// Label is a human readable name.
	Label string

	// Metadata is an opaque payload associated with the place, typically JSON.
	Metadata string

	Point Point
}

// Neighbor is a place returned by a nearest search together with its distance
// to the query.
type Neighbor struct {
	Place    Place
	Distance float64
}

// Store defines the application-level place store API.
type Store interface {
	// AddPlaces inserts places and returns their IDs. IDs are required.
	AddPlaces(ctx context.Context, places []Place) ([]string, error)

	// Nearest returns up to k places closest to query, ordered by ascending
	// distance; k <= 0 returns every place. Fewer than k results means fewer
	// than k places are stored.
	Nearest(ctx context.Context, query Point, k int) ([]Neighbor, error)

	// Remove deletes the place with the given ID.
	Remove(ctx context.Context, id string) error
}
