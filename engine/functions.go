package engine

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/viant/sphere-knn/sphere"
	sqlite "modernc.org/sqlite"
)

var registerOnce sync.Once

// RegisterSphereFunctions registers sph_distance, sph_chord and sph_point with
// the driver so they are available on new connections opened after this call.
// Note: existing open connections will not see new functions.
func RegisterSphereFunctions(_ *sql.DB) error {
	var err error
	registerOnce.Do(func() {
		for name, fn := range map[string]func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error){
			"sph_distance": metricImpl("sph_distance", sphere.Distance),
			"sph_chord":    metricImpl("sph_chord", sphere.ChordDistance),
		} {
			if err = sqlite.RegisterDeterministicScalarFunction(name, 2, fn); err != nil {
				return
			}
		}
		err = sqlite.RegisterDeterministicScalarFunction("sph_point", 2, pointImpl)
	})
	return err
}

func asPoint(arg driver.Value) (*sphere.Point, error) {
	switch v := arg.(type) {
	case nil:
		return nil, nil
	case []byte:
		p, err := sphere.DecodePoint(v)
		if err != nil {
			return nil, err
		}
		return &p, nil
	default:
		return nil, fmt.Errorf("sph: unsupported argument type %T for point; want BLOB", arg)
	}
}

func asAngle(arg driver.Value) (float64, bool, error) {
	switch v := arg.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case int64:
		return float64(v), true, nil
	default:
		return 0, false, fmt.Errorf("sph: unsupported argument type %T for angle; want REAL", arg)
	}
}

func metricImpl(name string, metric sphere.Metric) func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error) {
	return func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("%s: expected 2 arguments, got %d", name, len(args))
		}
		a, err := asPoint(args[0])
		if err != nil {
			return nil, err
		}
		b, err := asPoint(args[1])
		if err != nil {
			return nil, err
		}
		if a == nil || b == nil {
			return nil, nil
		}
		return metric(*a, *b), nil
	}
}

func pointImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("sph_point: expected 2 arguments, got %d", len(args))
	}
	polar, ok, err := asAngle(args[0])
	if err != nil || !ok {
		return nil, err
	}
	azimuth, ok, err := asAngle(args[1])
	if err != nil || !ok {
		return nil, err
	}
	p := sphere.NewPoint(polar, azimuth)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return sphere.EncodePoint(p), nil
}
