package nearest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sphere-knn/sphere"
)

// Dataset is a sphere.Store over one dataset of a nearest table. Writes go
// to the shadow table, where triggers invalidate indexes; reads go through
// the virtual table.
type Dataset struct {
	db     *sql.DB
	table  string
	column string
	shadow string
	id     string
}

// NewDataset binds a nearest virtual table declared in main, its id column
// (empty means place_id) and a dataset id. Names are interpolated into SQL
// and must be trusted.
func NewDataset(db *sql.DB, table, column, datasetID string) (*Dataset, error) {
	if db == nil {
		return nil, ErrNilDB
	}
	if table == "" || datasetID == "" {
		return nil, fmt.Errorf("nearest: table and dataset id are required")
	}
	if column == "" {
		column = defaultColumn
	}
	return &Dataset{db: db, table: table, column: column, shadow: QualifiedShadow("main", table), id: datasetID}, nil
}

// AddPlaces inserts or replaces places and returns their ids.
func (d *Dataset) AddPlaces(ctx context.Context, places []sphere.Place) ([]string, error) {
	if len(places) == 0 {
		return nil, nil
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()
	stmt := fmt.Sprintf(`INSERT INTO %s(dataset_id, id, label, meta, point)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(dataset_id, id) DO UPDATE SET
  label = excluded.label,
  meta = excluded.meta,
  point = excluded.point`, d.shadow)
	ids := make([]string, 0, len(places))
	for _, p := range places {
		if p.ID == "" {
			return nil, fmt.Errorf("nearest: place id is required")
		}
		if err := p.Point.Validate(); err != nil {
			return nil, fmt.Errorf("nearest: place %q: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, stmt, d.id, p.ID, p.Label, p.Metadata, sphere.EncodePoint(p.Point)); err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Remove deletes a place.
func (d *Dataset) Remove(ctx context.Context, id string) error {
	_, err := d.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE dataset_id = ? AND id = ?", d.shadow), d.id, id)
	return err
}

// Nearest returns up to k places ordered by distance; k <= 0 returns all.
func (d *Dataset) Nearest(ctx context.Context, query sphere.Point, k int) ([]sphere.Neighbor, error) {
	return d.query(ctx, query, k, nil)
}

// Within returns places no farther than radius, nearest first.
func (d *Dataset) Within(ctx context.Context, query sphere.Point, radius float64) ([]sphere.Neighbor, error) {
	return d.query(ctx, query, 0, &radius)
}

func (d *Dataset) query(ctx context.Context, query sphere.Point, k int, radius *float64) ([]sphere.Neighbor, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT rowid, distance FROM %s WHERE dataset_id = ? AND %s MATCH ?", d.table, d.column)
	args := []any{d.id, sphere.EncodePoint(query)}
	if radius != nil {
		q += " AND radius = ?"
		args = append(args, *radius)
	}
	if k > 0 {
		q += " LIMIT ?"
		args = append(args, k)
	}
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	type hit struct {
		rowid    int64
		distance float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.rowid, &h.distance); err != nil {
			rows.Close()
			return nil, err
		}
		hits = append(hits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT id, label, meta, point FROM %s WHERE rowid = ?", d.shadow)
	out := make([]sphere.Neighbor, 0, len(hits))
	for _, h := range hits {
		var (
			place       sphere.Place
			label, meta sql.NullString
			blob        []byte
		)
		if err := d.db.QueryRowContext(ctx, stmt, h.rowid).Scan(&place.ID, &label, &meta, &blob); err != nil {
			return nil, err
		}
		if place.Point, err = sphere.DecodePoint(blob); err != nil {
			return nil, err
		}
		place.Label, place.Metadata = label.String, meta.String
		out = append(out, sphere.Neighbor{Place: place, Distance: h.distance})
	}
	return out, nil
}

var _ sphere.Store = (*Dataset)(nil)
