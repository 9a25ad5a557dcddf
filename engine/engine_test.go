package engine

import (
	"testing"

	"github.com/viant/sphere-knn/sphere"
)

// TestOpenOrderBySphDistance verifies that an opened database can order rows
// by sph_distance without an explicit registration call.
func TestOpenOrderBySphDistance(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("CREATE TABLE pts(id TEXT, point BLOB)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	rows := []struct {
		id    string
		point sphere.Point
	}{
		{"far", sphere.FromDegrees(90, 180)},
		{"near", sphere.FromDegrees(90, 10)},
		{"mid", sphere.FromDegrees(0, 0)},
	}
	for _, r := range rows {
		if _, err := db.Exec("INSERT INTO pts(id, point) VALUES(?, ?)", r.id, sphere.EncodePoint(r.point)); err != nil {
			t.Fatalf("INSERT %s failed: %v", r.id, err)
		}
	}

	q := sphere.EncodePoint(sphere.FromDegrees(90, 0))
	res, err := db.Query("SELECT id FROM pts ORDER BY sph_distance(point, ?) ASC", q)
	if err != nil {
		t.Fatalf("ORDER BY sph_distance failed: %v", err)
	}
	defer res.Close()
	var ids []string
	for res.Next() {
		var id string
		if err := res.Scan(&id); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		ids = append(ids, id)
	}
	if err := res.Err(); err != nil {
		t.Fatalf("rows.Err: %v", err)
	}
	if len(ids) != 3 || ids[0] != "near" || ids[1] != "mid" || ids[2] != "far" {
		t.Fatalf("ORDER BY sph_distance returned %v, want [near mid far]", ids)
	}
}
