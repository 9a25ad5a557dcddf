package engine

import (
	"math"
	"testing"

	"github.com/viant/sphere-knn/sphere"
)

func TestRegisterSphereFunctionsAndUse(t *testing.T) {
	// Register globally before first connection so functions are available.
	if err := RegisterSphereFunctions(nil); err != nil {
		t.Fatalf("RegisterSphereFunctions failed: %v", err)
	}
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()

	if err := RegisterSphereFunctions(db); err != nil {
		t.Fatalf("RegisterSphereFunctions failed: %v", err)
	}

	east := sphere.EncodePoint(sphere.FromDegrees(90, 0))
	north := sphere.EncodePoint(sphere.FromDegrees(0, 0))
	westWrapped := sphere.EncodePoint(sphere.FromDegrees(90, 270))
	west := sphere.EncodePoint(sphere.FromDegrees(90, -90))

	// sph_distance between equator and pole -> π/2
	var dist float64
	if err := db.QueryRow(`SELECT sph_distance(?, ?)`, east, north).Scan(&dist); err != nil {
		t.Fatalf("sph_distance(east,north) query failed: %v", err)
	}
	if math.Abs(dist-math.Pi/2) > 1e-12 {
		t.Fatalf("sph_distance(east,north) = %v, want π/2", dist)
	}

	// equivalent azimuths -> 0
	if err := db.QueryRow(`SELECT sph_distance(?, ?)`, west, westWrapped).Scan(&dist); err != nil {
		t.Fatalf("sph_distance(west,westWrapped) query failed: %v", err)
	}
	if dist > 1e-7 {
		t.Fatalf("sph_distance(west,westWrapped) = %v, want 0", dist)
	}

	// sph_chord between equator and pole -> √2
	if err := db.QueryRow(`SELECT sph_chord(?, ?)`, east, north).Scan(&dist); err != nil {
		t.Fatalf("sph_chord query failed: %v", err)
	}
	if math.Abs(dist-math.Sqrt2) > 1e-6 {
		t.Fatalf("sph_chord = %v, want √2", dist)
	}

	// sph_point builds the same BLOB EncodePoint does
	var blob []byte
	if err := db.QueryRow(`SELECT sph_point(?, ?)`, 0.5, 1.25).Scan(&blob); err != nil {
		t.Fatalf("sph_point query failed: %v", err)
	}
	p, err := sphere.DecodePoint(blob)
	if err != nil {
		t.Fatalf("DecodePoint failed: %v", err)
	}
	if p != sphere.NewPoint(0.5, 1.25) {
		t.Fatalf("sph_point decoded = %v, want (0.5, 1.25)", p)
	}

	// NULL propagates
	var null *float64
	if err := db.QueryRow(`SELECT sph_distance(NULL, ?)`, east).Scan(&null); err != nil {
		t.Fatalf("sph_distance(NULL) query failed: %v", err)
	}
	if null != nil {
		t.Fatalf("sph_distance(NULL) = %v, want NULL", *null)
	}
}
