package sphere

import (
	"math"

	"github.com/viant/vec/search"
	"gonum.org/v1/gonum/spatial/r3"
)

// Metric scores two points; smaller is closer.
type Metric func(a, b Point) float64

// Distance returns the great-circle angle between a and b in radians, in [0, π].
func Distance(a, b Point) float64 {
	if a.Equal(b) {
		return 0
	}
	return math.Acos(clamp(r3.Dot(a.Unit(), b.Unit()), -1, 1))
}

// ChordDistance returns the straight-line distance between the unit vectors of
// a and b. It grows monotonically with Distance (chord = 2·sin(angle/2)).
func ChordDistance(a, b Point) float64 {
	if a.Equal(b) {
		return 0
	}
	return float64(search.Float32s(a.Embedding()).EuclideanDistance(b.Embedding()))
}

// ChordToAngle converts a chord length between unit vectors into the
// great-circle angle it subtends.
func ChordToAngle(chord float64) float64 {
	return 2 * math.Asin(clamp(chord/2, 0, 1))
}

// clamp keeps inverse trig arguments inside their domain; rounding can push
// a dot product of unit vectors slightly past ±1.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
