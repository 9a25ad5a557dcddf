package sphere

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/sphere-knn/knn"
)

// SQLiteStore implements Store on a SQLite database. Nearest feeds every
// stored point through a knn.NearestSet, so no index has to be kept in sync
// with writes.
type SQLiteStore struct {
	db     *sql.DB
	metric Metric
}

// NewSQLiteStore creates a new SQLite-backed Store. It ensures the places
// schema exists in the provided database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sphere: db is nil")
	}
	if err := EnsureSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, metric: Distance}, nil
}

// AddPlaces inserts places into the places table in a single transaction.
func (s *SQLiteStore) AddPlaces(ctx context.Context, places []Place) ([]string, error) {
	if len(places) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO places(id, label, meta, point) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make([]string, 0, len(places))
	for _, p := range places {
		if p.ID == "" {
			return nil, fmt.Errorf("sphere: Place.ID must be set in AddPlaces")
		}
		if err := p.Point.Validate(); err != nil {
			return nil, fmt.Errorf("sphere: place %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.Label, p.Metadata, EncodePoint(p.Point)); err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Nearest scans the places table and keeps the k closest rows to query;
// k <= 0 returns every row.
func (s *SQLiteStore) Nearest(ctx context.Context, query Point, k int) ([]Neighbor, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, label, meta, point FROM places ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		scanned   []Place
		distances []float64
	)
	for rows.Next() {
		var p Place
		var blob []byte
		if err := rows.Scan(&p.ID, &p.Label, &p.Metadata, &blob); err != nil {
			return nil, err
		}
		if p.Point, err = DecodePoint(blob); err != nil {
			return nil, fmt.Errorf("sphere: place %s: %w", p.ID, err)
		}
		scanned = append(scanned, p)
		distances = append(distances, s.metric(query, p.Point))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(scanned) == 0 {
		return nil, nil
	}
	if k <= 0 || k > len(scanned) {
		k = len(scanned)
	}

	set, err := knn.New(k)
	if err != nil {
		return nil, err
	}
	for i, d := range distances {
		if err := set.Consider(i, d); err != nil {
			return nil, err
		}
	}
	best, err := set.Extract()
	if err != nil {
		return nil, err
	}
	knn.Sort(best)
	out := make([]Neighbor, len(best))
	for i, c := range best {
		out[i] = Neighbor{Place: scanned[c.Index], Distance: c.Distance}
	}
	return out, nil
}

// Remove deletes a place by ID.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("sphere: Remove called with empty id")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM places WHERE id = ?`, id)
	return err
}

// Ensure SQLiteStore satisfies the Store interface.
var _ Store = (*SQLiteStore)(nil)
