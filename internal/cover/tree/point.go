package tree

import "github.com/viant/sphere-knn/sphere"

// Point is a sphere point held by the cover tree.
type Point struct {
	index int32
	sphere.Point
}

// HasValue reports whether the point has an associated value.
func (p *Point) HasValue() bool {
	return p != nil && p.index >= 0
}

// Index returns the value slot assigned on insert, or -1.
func (p *Point) Index() int32 {
	if p == nil {
		return -1
	}
	return p.index
}

// NewPoint wraps a sphere point for insertion.
func NewPoint(p sphere.Point) *Point {
	return &Point{index: -1, Point: p}
}
