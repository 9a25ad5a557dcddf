package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/viant/sphere-knn/sphere"
)

var (
	// ErrLengthMismatch is returned when ids and points differ in length.
	ErrLengthMismatch = errors.New("index: ids and points length mismatch")
	// ErrTruncated is returned when a serialized index ends early.
	ErrTruncated = errors.New("index: truncated data")
)

// Encode stores: n(uint32), then for each item idLen(uint32), id bytes,
// polar(float64), azimuth(float64), all little-endian.
func Encode(ids []string, points []sphere.Point) ([]byte, error) {
	if len(ids) != len(points) {
		return nil, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(ids), len(points))
	}
	size := 4
	for _, id := range ids {
		size += 4 + len(id) + sphere.PointSize
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(ids)))
	for i, id := range ids {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(points[i].Polar))
		out = binary.LittleEndian.AppendUint64(out, math.Float64bits(points[i].Azimuth))
	}
	return out, nil
}

// Decode restores ids and points written by Encode.
func Decode(data []byte) ([]string, []sphere.Point, error) {
	if len(data) < 4 {
		return nil, nil, ErrTruncated
	}
	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }
	getF64 := func() float64 {
		v := math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		off += 8
		return v
	}
	n := int(getU32())
	if n > len(data) {
		return nil, nil, fmt.Errorf("%w: count %d exceeds payload", ErrTruncated, n)
	}
	ids := make([]string, n)
	points := make([]sphere.Point, n)
	for idx := 0; idx < n; idx++ {
		if off+4 > len(data) {
			return nil, nil, ErrTruncated
		}
		idLen := int(getU32())
		if off+idLen+sphere.PointSize > len(data) {
			return nil, nil, fmt.Errorf("%w: item %d", ErrTruncated, idx)
		}
		ids[idx] = string(data[off : off+idLen])
		off += idLen
		points[idx] = sphere.Point{Polar: getF64(), Azimuth: getF64()}
	}
	return ids, points, nil
}

// Validate checks ids/points agreement and every point's domain.
func Validate(ids []string, points []sphere.Point) error {
	if len(ids) != len(points) {
		return fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(ids), len(points))
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("index: point %q: %w", ids[i], err)
		}
	}
	return nil
}
