package tree

import "math"

// Node represents a cover-tree node. Every child of a node at level l lies
// strictly within base^l of it and sits at level l-1.
type Node struct {
	level          int32
	baseLevel      float64
	point          *Point
	children       []Node
	radius         float64
	radiusComputed uint64
}

// NewNode constructs a node for the provided point and level.
func NewNode(point *Point, level int32, base float64) Node {
	return Node{
		level:     level,
		baseLevel: math.Pow(base, float64(level)),
		point:     point,
	}
}
