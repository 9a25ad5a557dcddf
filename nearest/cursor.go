package nearest

import (
	"context"
	"fmt"
	"strings"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/index/cover"
	"github.com/viant/sphere-knn/search"
)

type row struct {
	rowid    int64
	dataset  string
	id       string
	distance *float64
}

// Cursor iterates the rows produced by Filter.
type Cursor struct {
	table  *Table
	rows   []row
	pos    int
	radius *float64
}

// Filter runs the plan chosen by BestIndex.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos, c.radius = nil, 0, nil
	if c.table == nil || c.table.db == nil {
		return nil
	}
	ctx := context.Background()
	if len(vals) == 0 || vals[0] == nil {
		return ErrDatasetRequired
	}
	dataset, err := asString(vals[0])
	if err != nil {
		return err
	}
	if err := c.table.ensureShadow(ctx); err != nil {
		return err
	}
	switch idxNum {
	case idxDatasetScan:
		return c.scan(ctx, dataset)
	case idxDatasetMatch, idxDatasetMatchRadius:
		if len(vals) < 2 || vals[1] == nil {
			return fmt.Errorf("%w: MATCH argument is required", ErrInvalidMatch)
		}
		query, err := decodeMatchArg(vals[1])
		if err != nil {
			return err
		}
		if idxNum == idxDatasetMatchRadius {
			if len(vals) < 3 {
				return fmt.Errorf("nearest: missing radius constraint")
			}
			r, err := asFloat(vals[2])
			if err != nil {
				return err
			}
			c.radius = &r
		}
		s, err := c.table.ensureSearcher(ctx, dataset)
		if err != nil {
			return err
		}
		var result search.Result
		if c.radius != nil {
			result, err = s.SearchWithin(ctx, query, 0, *c.radius)
		} else {
			result, err = s.Search(ctx, query, 0)
		}
		if err != nil {
			return err
		}
		rowids, err := c.table.rowids(ctx, dataset)
		if err != nil {
			return err
		}
		c.rows = make([]row, 0, len(result.Matches))
		for _, m := range result.Matches {
			rid, ok := rowids[m.ID]
			if !ok {
				continue
			}
			d := m.Distance
			c.rows = append(c.rows, row{rowid: rid, dataset: dataset, id: m.ID, distance: &d})
		}
		return nil
	default:
		return fmt.Errorf("nearest: unsupported query plan %d", idxNum)
	}
}

func (c *Cursor) scan(ctx context.Context, dataset string) error {
	q := fmt.Sprintf("SELECT rowid, id FROM %s WHERE dataset_id = ? ORDER BY rowid", c.table.shadow)
	rows, err := c.table.db.QueryContext(ctx, q, dataset)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		r := row{dataset: dataset}
		if err := rows.Scan(&r.rowid, &r.id); err != nil {
			return err
		}
		c.rows = append(c.rows, r)
	}
	return rows.Err()
}

// Next advances the cursor.
func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

// Eof reports whether all rows were read.
func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

// Column returns a column of the current row; distance is NULL for scans.
func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("nearest: column out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	r := c.rows[c.pos]
	switch col {
	case colDataset:
		return r.dataset, nil
	case colID:
		return r.id, nil
	case colDistance:
		if r.distance == nil {
			return nil, nil
		}
		return *r.distance, nil
	case colRadius:
		if c.radius == nil {
			return nil, nil
		}
		return *c.radius, nil
	}
	return nil, fmt.Errorf("nearest: unsupported column %d", col)
}

// Rowid returns the shadow rowid of the current row.
func (c *Cursor) Rowid() (int64, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return 0, fmt.Errorf("nearest: rowid out of range (pos=%d,len=%d)", c.pos, len(c.rows))
	}
	return c.rows[c.pos].rowid, nil
}

// Close releases the rows.
func (c *Cursor) Close() error {
	c.rows, c.pos = nil, 0
	return nil
}

func (t *Table) rowids(ctx context.Context, dataset string) (map[string]int64, error) {
	rows, err := t.db.QueryContext(ctx, fmt.Sprintf("SELECT rowid, id FROM %s WHERE dataset_id = ?", t.shadow), dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var rid int64
		var id string
		if err := rows.Scan(&rid, &id); err != nil {
			return nil, err
		}
		out[id] = rid
	}
	return out, rows.Err()
}

// ensureSearcher returns the cached searcher for a dataset, loading the
// persisted index or building and persisting a new one.
func (t *Table) ensureSearcher(ctx context.Context, dataset string) (*search.Searcher, error) {
	if strings.TrimSpace(dataset) == "" {
		return nil, ErrDatasetRequired
	}
	entry := getCacheEntry(cacheKey(t.cachedDbPath(ctx), t.tableName, dataset))
	s, claimed := entry.acquire()
	if !claimed {
		return s, nil
	}
	defer entry.release()

	if s, err := t.loadPersisted(ctx, dataset); err != nil || s != nil {
		if s != nil {
			entry.set(s)
		}
		return s, err
	}
	unlock, err := acquireBuildLock(ctx, t.db, t.shadow, dataset)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if s, err := t.loadPersisted(ctx, dataset); err != nil || s != nil {
		if s != nil {
			entry.set(s)
		}
		return s, err
	}

	ids, points, err := LoadPoints(ctx, t.db, t.shadow, dataset)
	if err != nil {
		return nil, err
	}
	s, err = search.Build(ctx, t.kind, ids, points,
		search.WithLogger(t.logger),
		search.WithCoverOptions(t.coverOpts.toIndexOptions()...),
	)
	if err != nil {
		return nil, err
	}
	if err := Persist(ctx, t.db, t.shadow, dataset, s.Index()); err != nil {
		t.logger.WarnContext(ctx, "index persist failed", "shadow", t.shadow, "dataset", dataset, "error", err)
	}
	entry.set(s)
	return s, nil
}

// loadPersisted restores a searcher from point_index_storage. Cover blobs are
// unmarshaled as cover trees; other blobs are rebuilt with the table's kind.
// Unreadable blobs are treated as missing.
func (t *Table) loadPersisted(ctx context.Context, dataset string) (*search.Searcher, error) {
	blob, err := loadBlob(ctx, t.db, t.shadow, dataset)
	if err != nil || len(blob) == 0 {
		return nil, err
	}
	opts := []search.Option{search.WithLogger(t.logger), search.WithCoverOptions(t.coverOpts.toIndexOptions()...)}
	if cover.IsCoverBlob(blob) {
		idx := cover.New(t.coverOpts.toIndexOptions()...)
		if err := idx.UnmarshalBinary(blob); err != nil {
			return nil, nil
		}
		return search.New(idx, opts...)
	}
	ids, points, err := index.Decode(blob)
	if err != nil {
		return nil, nil
	}
	s, err := search.Build(ctx, t.kind, ids, points, opts...)
	if err != nil {
		return nil, nil
	}
	return s, nil
}
