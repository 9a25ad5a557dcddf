package tree

import (
	"math"

	"github.com/viant/sphere-knn/sphere"
)

// DistanceFunction enumerates supported distance metrics for the cover tree.
type DistanceFunction string

const (
	DistanceFunctionGreatCircle DistanceFunction = "great_circle"
	DistanceFunctionChord       DistanceFunction = "chord"
)

// DistanceFunc computes the distance between two points.
type DistanceFunc func(p1, p2 *Point) float64

// Function resolves the callable distance implementation.
func (d DistanceFunction) Function() DistanceFunc {
	switch d {
	case DistanceFunctionGreatCircle:
		return GreatCircleDistance
	case DistanceFunctionChord:
		return ChordDistance
	default:
		return nil
	}
}

// MaxDistance is the largest value the metric returns for any two points.
func (d DistanceFunction) MaxDistance() float64 {
	switch d {
	case DistanceFunctionChord:
		return 2
	default:
		return math.Pi
	}
}

// ToAngle maps a value of the metric to the great-circle angle it
// corresponds to. Values at or below zero stay as they are.
func (d DistanceFunction) ToAngle(v float64) float64 {
	if d != DistanceFunctionChord || v <= 0 {
		return v
	}
	return sphere.ChordToAngle(v)
}

// GreatCircleDistance returns the angle between two points.
func GreatCircleDistance(p1, p2 *Point) float64 {
	return sphere.Distance(p1.Point, p2.Point)
}

// ChordDistance returns the straight-line distance between two points' unit vectors.
func ChordDistance(p1, p2 *Point) float64 {
	return sphere.ChordDistance(p1.Point, p2.Point)
}
