package sphere

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a location on the unit sphere. Polar is measured from the +z axis
// and lies in [0, π]; Azimuth is measured from +x towards +y and is periodic,
// so any representative modulo 2π is accepted.
type Point struct {
	Polar   float64 `yaml:"polar" json:"polar"`
	Azimuth float64 `yaml:"azimuth" json:"azimuth"`
}

// NewPoint constructs a point from radians.
func NewPoint(polar, azimuth float64) Point {
	return Point{Polar: polar, Azimuth: azimuth}
}

// FromDegrees constructs a point from degrees.
func FromDegrees(polarDeg, azimuthDeg float64) Point {
	return Point{Polar: Radians(polarDeg), Azimuth: Radians(azimuthDeg)}
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }

// InvalidPointError reports a coordinate outside its domain.
type InvalidPointError struct {
	Point Point
	Field string
}

func (e *InvalidPointError) Error() string {
	return fmt.Sprintf("sphere: invalid %s in point (polar=%v, azimuth=%v)", e.Field, e.Point.Polar, e.Point.Azimuth)
}

// Validate checks that both angles are finite and polar lies in [0, π].
func (p Point) Validate() error {
	if math.IsNaN(p.Polar) || math.IsInf(p.Polar, 0) || p.Polar < 0 || p.Polar > math.Pi {
		return &InvalidPointError{Point: p, Field: "polar"}
	}
	if math.IsNaN(p.Azimuth) || math.IsInf(p.Azimuth, 0) {
		return &InvalidPointError{Point: p, Field: "azimuth"}
	}
	return nil
}

// Normalize returns the same location with azimuth reduced into [-π, π].
func (p Point) Normalize() Point {
	return Point{Polar: p.Polar, Azimuth: math.Remainder(p.Azimuth, 2*math.Pi)}
}

// Equal reports whether both points carry the same coordinates once azimuth
// is reduced.
func (p Point) Equal(o Point) bool {
	a, b := p.Normalize(), o.Normalize()
	return a.Polar == b.Polar && a.Azimuth == b.Azimuth
}

// Unit returns the point as a unit vector.
func (p Point) Unit() r3.Vec {
	n := p.Normalize()
	sinP, cosP := math.Sincos(n.Polar)
	sinA, cosA := math.Sincos(n.Azimuth)
	return r3.Vec{X: sinP * cosA, Y: sinP * sinA, Z: cosP}
}

// Embedding returns the unit vector as float32 components.
func (p Point) Embedding() []float32 {
	v := p.Unit()
	return []float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func (p Point) String() string {
	return fmt.Sprintf("(polar=%.6f, azimuth=%.6f)", p.Polar, p.Azimuth)
}
