package nearest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sphere-knn/sphere"
)

// decodeMatchArg accepts an EncodePoint BLOB, a JSON array [polar, azimuth],
// a JSON object {"polar":..,"azimuth":..}, base64 of the BLOB, or "polar,azimuth".
// Angles are radians.
func decodeMatchArg(v vtab.Value) (sphere.Point, error) {
	var (
		p   sphere.Point
		err error
	)
	switch val := v.(type) {
	case []byte:
		p, err = sphere.DecodePoint(val)
	case string:
		p, err = decodeMatchString(val)
	default:
		return p, fmt.Errorf("%w: expected BLOB or TEXT, got %T", ErrInvalidMatch, v)
	}
	if err != nil {
		return p, err
	}
	return p, p.Validate()
}

func decodeMatchString(raw string) (sphere.Point, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sphere.Point{}, fmt.Errorf("%w: empty string", ErrInvalidMatch)
	}
	switch s[0] {
	case '[':
		var pair []float64
		if err := json.Unmarshal([]byte(s), &pair); err != nil || len(pair) != 2 {
			return sphere.Point{}, fmt.Errorf("%w: want [polar, azimuth], got %s", ErrInvalidMatch, s)
		}
		return sphere.NewPoint(pair[0], pair[1]), nil
	case '{':
		var p sphere.Point
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return p, fmt.Errorf("%w: %v", ErrInvalidMatch, err)
		}
		return p, nil
	}
	if polar, azimuth, ok := strings.Cut(s, ","); ok {
		a, errA := strconv.ParseFloat(strings.TrimSpace(polar), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(azimuth), 64)
		if errA != nil || errB != nil {
			return sphere.Point{}, fmt.Errorf("%w: invalid CSV point %q", ErrInvalidMatch, s)
		}
		return sphere.NewPoint(a, b), nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		if p, err := sphere.DecodePoint(b); err == nil {
			return p, nil
		}
	}
	return sphere.Point{}, fmt.Errorf("%w: want point BLOB, base64, JSON or CSV, got %q", ErrInvalidMatch, s)
}

func asFloat(v vtab.Value) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int64:
		return float64(val), nil
	case []byte:
		return parseFloat(string(val))
	case string:
		return parseFloat(val)
	default:
		return 0, fmt.Errorf("nearest: unsupported radius type %T", v)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("nearest: cannot parse radius %q: %w", s, err)
	}
	return f, nil
}

func asString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case nil:
		return "", fmt.Errorf("nearest: value is nil")
	default:
		return "", fmt.Errorf("nearest: unsupported text type %T", v)
	}
}
