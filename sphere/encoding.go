package sphere

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PointSize is the encoded length of a point.
const PointSize = 16

// EncodePoint encodes a point as a BLOB: polar then azimuth, each a
// little-endian IEEE 754 float64.
func EncodePoint(p Point) []byte {
	b := make([]byte, PointSize)
	binary.LittleEndian.PutUint64(b[0:8], math.Float64bits(p.Polar))
	binary.LittleEndian.PutUint64(b[8:16], math.Float64bits(p.Azimuth))
	return b
}

// DecodePoint decodes a BLOB produced by EncodePoint.
func DecodePoint(b []byte) (Point, error) {
	if len(b) != PointSize {
		return Point{}, fmt.Errorf("sphere: invalid point blob length %d (want %d)", len(b), PointSize)
	}
	return Point{
		Polar:   math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])),
		Azimuth: math.Float64frombits(binary.LittleEndian.Uint64(b[8:16])),
	}, nil
}
