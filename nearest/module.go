package nearest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"modernc.org/sqlite/vtab"

	"github.com/viant/sphere-knn/search"
)

// ModuleName is the name used in CREATE VIRTUAL TABLE ... USING.
const ModuleName = "nearest"

const defaultColumn = "place_id"

// Module implements vtab.Module for nearest tables.
type Module struct {
	mu     sync.RWMutex
	db     *sql.DB
	logger *search.Logger
}

// registered is the module handed to vtab.RegisterModule; later Register
// calls retarget it when the name is already taken.
var registered struct {
	mu     sync.Mutex
	module *Module
}

// Option configures the module.
type Option func(*Module)

// WithLogger sets the logger used for index builds and queries.
func WithLogger(l *search.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.logger = l
		}
	}
}

// Table is one nearest virtual table.
type Table struct {
	db        *sql.DB
	logger    *search.Logger
	dbName    string
	tableName string
	shadow    string

	dbPathOnce sync.Once
	dbPath     string

	shadowOnce sync.Once
	shadowErr  error

	kind      search.Kind
	coverOpts coverOptions
}

// Register registers the nearest module and the nearest_invalidate function.
func Register(db *sql.DB, opts ...Option) error {
	m := &Module{db: db, logger: search.NoopLogger()}
	for _, opt := range opts {
		opt(m)
	}
	registered.mu.Lock()
	defer registered.mu.Unlock()
	if err := vtab.RegisterModule(db, ModuleName, m); err != nil {
		if !strings.Contains(err.Error(), "already registered") {
			return err
		}
		if prev := registered.module; prev != nil {
			prev.mu.Lock()
			prev.db, prev.logger = m.db, m.logger
			prev.mu.Unlock()
		}
	} else {
		registered.module = m
	}
	return registerInvalidate()
}

// Create declares a new table. Arguments after the module name are an
// optional column name followed by key=value index options.
func (m *Module) Create(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

// Connect attaches to an existing table.
func (m *Module) Connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	return m.connect(ctx, args)
}

func (m *Module) connect(ctx vtab.Context, args []string) (vtab.Table, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("nearest: expected at least 3 args, got %d", len(args))
	}
	if err := ctx.EnableConstraintSupport(); err != nil {
		return nil, fmt.Errorf("nearest: EnableConstraintSupport failed: %w", err)
	}
	col := defaultColumn
	optStart := 3
	if len(args) > 3 {
		if a := strings.TrimSpace(args[3]); a != "" && !strings.Contains(a, "=") {
			col = a
			optStart = 4
		}
	}
	if err := ctx.Declare(fmt.Sprintf("CREATE TABLE %s(dataset_id TEXT, %s TEXT, distance REAL HIDDEN, radius REAL HIDDEN)", args[2], col)); err != nil {
		return nil, err
	}
	opts := parseIndexOptions(args[optStart:])
	m.mu.RLock()
	db, logger := m.db, m.logger
	m.mu.RUnlock()
	t := &Table{
		db:        db,
		logger:    logger,
		dbName:    args[1],
		tableName: args[2],
		kind:      opts.kind,
		coverOpts: opts.cover,
	}
	t.shadow = QualifiedShadow(t.dbName, t.tableName)
	return t, nil
}

// Shadow returns the qualified shadow table name.
func (t *Table) Shadow() string { return t.shadow }

// Open allocates a cursor.
func (t *Table) Open() (vtab.Cursor, error) { return &Cursor{table: t}, nil }

// Disconnect releases nothing; cached indexes outlive connections.
func (t *Table) Disconnect() error { return nil }

// Destroy drops cached indexes; the shadow table and persisted blobs stay.
func (t *Table) Destroy() error {
	InvalidateCache(t.shadow, "")
	return nil
}

// ensureShadow creates the shadow table lazily, outside xCreate.
func (t *Table) ensureShadow(ctx context.Context) error {
	if t.db == nil {
		return ErrNilDB
	}
	t.shadowOnce.Do(func() { t.shadowErr = EnsureShadow(ctx, t.db, t.shadow) })
	return t.shadowErr
}

func (t *Table) cachedDbPath(ctx context.Context) string {
	t.dbPathOnce.Do(func() {
		path, err := resolveDbPath(ctx, t.db, t.dbName)
		if err != nil {
			path = t.dbName
			if path == "" {
				path = "main"
			}
		}
		t.dbPath = path
	})
	return t.dbPath
}
