package nearest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/viant/sphere-knn/index"
	"github.com/viant/sphere-knn/sphere"
)

const (
	// ShadowPrefix prefixes the shadow table of every nearest table.
	ShadowPrefix = "_nearest_"
	// StorageTable persists serialized indexes per shadow table and dataset.
	StorageTable = "point_index_storage"

	lockTable      = "point_index_storage_locks"
	lockRetryDelay = 50 * time.Millisecond
	lockStaleAfter = 2 * time.Minute
)

var lockOwnerID = fmt.Sprintf("pid:%d-%d", os.Getpid(), time.Now().UnixNano())

// EnsureShadow creates the shadow table and the triggers that drop persisted
// and cached indexes whenever a row changes.
func EnsureShadow(ctx context.Context, db *sql.DB, shadow string) error {
	if db == nil {
		return ErrNilDB
	}
	if err := EnsureStorage(ctx, db); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    dataset_id TEXT NOT NULL,
    id         TEXT NOT NULL,
    label      TEXT,
    meta       TEXT,
    point      BLOB,
    PRIMARY KEY(dataset_id, id)
)`, shadow)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return err
	}
	trigBase := sanitizeName("trg_nearest_" + shadow)
	shadowLit := quoteLiteral(shadow)
	forRow := func(ref string) string {
		return `DELETE FROM ` + StorageTable + ` WHERE shadow_table_name = ` + shadowLit + ` AND dataset_id = ` + ref + `.dataset_id; ` +
			`SELECT nearest_invalidate(` + shadowLit + `, ` + ref + `.dataset_id);`
	}
	triggers := []string{
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_ins AFTER INSERT ON %s BEGIN %s END`, trigBase, shadow, forRow("NEW")),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_upd AFTER UPDATE ON %s BEGIN %s %s END`, trigBase, shadow, forRow("NEW"), forRow("OLD")),
		fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s_del AFTER DELETE ON %s BEGIN %s END`, trigBase, shadow, forRow("OLD")),
	}
	for _, trigger := range triggers {
		if _, err := db.ExecContext(ctx, trigger); err != nil {
			return err
		}
	}
	return nil
}

// EnsureStorage creates the index storage and build lock tables.
func EnsureStorage(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return ErrNilDB
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+StorageTable+` (
    shadow_table_name TEXT NOT NULL,
    dataset_id        TEXT NOT NULL DEFAULT '',
    "index"           BLOB,
    PRIMARY KEY (shadow_table_name, dataset_id)
)`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+lockTable+` (
    shadow_table_name TEXT NOT NULL,
    dataset_id        TEXT NOT NULL DEFAULT '',
    owner             TEXT NOT NULL,
    locked_at         INTEGER NOT NULL,
    PRIMARY KEY (shadow_table_name, dataset_id)
)`)
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// LoadPoints reads the ids and points of one dataset from a shadow table in
// rowid order. Rows with an empty point are skipped.
func LoadPoints(ctx context.Context, db queryer, shadow, dataset string) ([]string, []sphere.Point, error) {
	q := fmt.Sprintf("SELECT id, point FROM %s WHERE dataset_id = ? AND point IS NOT NULL ORDER BY rowid", shadow)
	rows, err := db.QueryContext(ctx, q, dataset)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var (
		ids    []string
		points []sphere.Point
	)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, nil, err
		}
		if len(blob) == 0 {
			continue
		}
		p, err := sphere.DecodePoint(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("nearest: row %q: %w", id, err)
		}
		ids = append(ids, id)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return ids, points, nil
}

// Datasets lists the distinct datasets of a shadow table.
func Datasets(ctx context.Context, db queryer, shadow string) ([]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT dataset_id FROM %s ORDER BY dataset_id", shadow))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ds string
		if err := rows.Scan(&ds); err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, rows.Err()
}

// Persist stores a serialized index for a shadow table and dataset.
func Persist(ctx context.Context, db execer, shadow, dataset string, idx index.Index) error {
	data, err := idx.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO `+StorageTable+`(shadow_table_name, dataset_id, "index") VALUES(?, ?, ?)`, shadow, dataset, data)
	return err
}

func loadBlob(ctx context.Context, db *sql.DB, shadow, dataset string) ([]byte, error) {
	var blob []byte
	err := db.QueryRowContext(ctx, `SELECT "index" FROM `+StorageTable+` WHERE shadow_table_name = ? AND dataset_id = ?`, shadow, dataset).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return blob, err
}

// acquireBuildLock serializes index builds for one dataset across processes
// sharing the database file. Locks older than lockStaleAfter are taken over.
func acquireBuildLock(ctx context.Context, db *sql.DB, shadow, dataset string) (func(), error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		owner, err := claimLock(ctx, db, shadow, dataset)
		if err != nil {
			return nil, err
		}
		if owner == lockOwnerID {
			return func() {
				_, _ = db.ExecContext(context.Background(), `DELETE FROM `+lockTable+` WHERE shadow_table_name = ? AND dataset_id = ? AND owner = ?`, shadow, dataset, lockOwnerID)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

func claimLock(ctx context.Context, db *sql.DB, shadow, dataset string) (string, error) {
	now := time.Now().Unix()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO `+lockTable+`(shadow_table_name, dataset_id, owner, locked_at) VALUES(?, ?, ?, ?)`, shadow, dataset, lockOwnerID, now); err != nil {
		return "", err
	}
	var owner string
	var lockedAt int64
	if err := tx.QueryRowContext(ctx, `SELECT owner, locked_at FROM `+lockTable+` WHERE shadow_table_name = ? AND dataset_id = ?`, shadow, dataset).Scan(&owner, &lockedAt); err != nil {
		return "", err
	}
	if owner != lockOwnerID && lockedAt <= time.Now().Add(-lockStaleAfter).Unix() {
		res, err := tx.ExecContext(ctx, `UPDATE `+lockTable+` SET owner = ?, locked_at = ? WHERE shadow_table_name = ? AND dataset_id = ? AND locked_at = ?`, lockOwnerID, now, shadow, dataset, lockedAt)
		if err != nil {
			return "", err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			owner = lockOwnerID
		}
	}
	return owner, tx.Commit()
}

// QualifiedShadow returns the shadow table name for a virtual table.
func QualifiedShadow(dbName, tableName string) string {
	base := ShadowPrefix + tableName
	if strings.TrimSpace(dbName) == "" {
		return base
	}
	return dbName + "." + base
}

func tableNameFromShadow(shadow string) string {
	if i := strings.Index(shadow, "."+ShadowPrefix); i >= 0 {
		return shadow[i+len("."+ShadowPrefix):]
	}
	if strings.HasPrefix(shadow, ShadowPrefix) {
		return strings.TrimPrefix(shadow, ShadowPrefix)
	}
	return ""
}

func resolveDbPath(ctx context.Context, db *sql.DB, dbName string) (string, error) {
	if dbName == "" {
		dbName = "main"
	}
	rows, err := db.QueryContext(ctx, `SELECT name, file FROM pragma_database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	for rows.Next() {
		var name, file string
		if err := rows.Scan(&name, &file); err != nil {
			return "", err
		}
		if name != dbName {
			continue
		}
		if file == "" {
			return name, nil
		}
		return file, nil
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return dbName, nil
}

// sanitizeName turns a qualified name into an identifier usable for triggers.
func sanitizeName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_", " ", "_").Replace(name)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
