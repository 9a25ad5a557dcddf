// Package nearestadmin exposes maintenance operations for nearest tables
// through a virtual table:
//
//	CREATE VIRTUAL TABLE nearest_admin USING nearest_admin(op);
//	SELECT op FROM nearest_admin WHERE op MATCH 'main._nearest_places';
//
// The MATCH rebuilds a VP-tree index for every dataset of the shadow table,
// persists it and returns a single row 'reindexed:<points>'.
package nearestadmin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sphere-knn/nearest"
	"github.com/viant/sphere-knn/search"
)

// ModuleName is the name used in CREATE VIRTUAL TABLE ... USING.
const ModuleName = "nearest_admin"

// ErrInvalidShadow is returned for MATCH arguments that are not a nearest shadow table.
var ErrInvalidShadow = errors.New("nearest_admin: invalid shadow table name")

var shadowPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*\.)?` + nearest.ShadowPrefix + `[A-Za-z0-9_]+$`)

// Module implements vtab.Module for nearest_admin.
type Module struct {
	mu     sync.RWMutex
	db     *sql.DB
	logger *search.Logger
}

var registered struct {
	mu     sync.Mutex
	module *Module
}

// Table is a nearest_admin instance.
type Table struct {
	db     *sql.DB
	logger *search.Logger
}

// Cursor holds the single result row of an operation.
type Cursor struct {
	table *Table
	rows  []string
	pos   int
}

// Register registers the nearest_admin module; logger may be nil.
func Register(db *sql.DB, logger *search.Logger) error {
	if logger == nil {
		logger = search.NoopLogger()
	}
	m := &Module{db: db, logger: logger}
	registered.mu.Lock()
	defer registered.mu.Unlock()
	if err := vtab.RegisterModule(db, ModuleName, m); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
		if prev := registered.module; prev != nil {
			prev.mu.Lock()
			prev.db, prev.logger = db, logger
			prev.mu.Unlock()
		}
		return nil
	}
	registered.module = m
	return nil
}

// Create declares the single op column.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.Connect(ctx, args)
}

// Connect declares the single op column.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("nearest_admin: need at least 3 args, got %d", len(args))
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(op TEXT)", args[2])); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Table{db: m.db, logger: m.logger}, nil
}

// BestIndex uses MATCH on op when present.
func (t *Table) BestIndex(info *vtab.IndexInfo) error {
	for i := range info.Constraints {
		c := &info.Constraints[i]
		if c.Usable && c.Column == 0 && c.Op == vtab.OpMATCH {
			c.ArgIndex = 0
			c.Omit = true
			info.IdxNum = 1
			return nil
		}
	}
	return nil
}

func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }
func (t *Table) Disconnect() error          { return nil }
func (t *Table) Destroy() error             { return nil }

// Filter runs the operation named by the MATCH argument.
func (c *Cursor) Filter(idxNum int, _ string, vals []vtab.Value) error {
	c.rows, c.pos = nil, 0
	if idxNum != 1 || len(vals) == 0 || vals[0] == nil {
		return nil
	}
	shadow, ok := vals[0].(string)
	if !ok {
		return fmt.Errorf("nearest_admin: MATCH expects shadow table name as TEXT, got %T", vals[0])
	}
	n, err := Reindex(context.Background(), c.table.db, c.table.logger, strings.TrimSpace(shadow))
	if err != nil {
		return err
	}
	c.rows = []string{fmt.Sprintf("reindexed:%d", n)}
	return nil
}

func (c *Cursor) Next() error {
	if c.pos < len(c.rows) {
		c.pos++
	}
	return nil
}

func (c *Cursor) Eof() bool { return c.pos >= len(c.rows) }

func (c *Cursor) Column(col int) (vtab.Value, error) {
	if c.pos < 0 || c.pos >= len(c.rows) {
		return nil, fmt.Errorf("nearest_admin: column out of range")
	}
	if col == 0 {
		return c.rows[c.pos], nil
	}
	return nil, nil
}

func (c *Cursor) Rowid() (int64, error) { return int64(c.pos + 1), nil }

func (c *Cursor) Close() error {
	c.rows, c.pos = nil, 0
	return nil
}

// Reindex rebuilds and persists a VP-tree for every dataset of shadow in a
// single transaction, then drops cached indexes. It returns the number of
// indexed points.
func Reindex(ctx context.Context, db *sql.DB, logger *search.Logger, shadow string) (int, error) {
	if !shadowPattern.MatchString(shadow) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidShadow, shadow)
	}
	if logger == nil {
		logger = search.NoopLogger()
	}
	if err := nearest.EnsureStorage(ctx, db); err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	datasets, err := nearest.Datasets(ctx, tx, shadow)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, dataset := range datasets {
		ids, points, err := nearest.LoadPoints(ctx, tx, shadow, dataset)
		if err != nil {
			return 0, err
		}
		s, err := search.Build(ctx, search.KindVPTree, ids, points, search.WithLogger(logger))
		if err != nil {
			return 0, fmt.Errorf("nearest_admin: dataset %q: %w", dataset, err)
		}
		if err := nearest.Persist(ctx, tx, shadow, dataset, s.Index()); err != nil {
			return 0, err
		}
		total += len(ids)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	nearest.InvalidateCache(shadow, "")
	logger.InfoContext(ctx, "reindex completed", "shadow", shadow, "datasets", len(datasets), "points", total)
	return total, nil
}
