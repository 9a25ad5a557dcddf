package engine

import (
	"database/sql"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver
)

// Open opens a SQLite database using the modernc.org/sqlite driver, with the
// sphere SQL functions registered.
//
// For file-based databases, pass a path like "./places.sqlite". For in-memory
// databases, pass ":memory:". Each connection to ":memory:" is a separate
// database, so callers sharing one should cap the pool with SetMaxOpenConns(1).
func Open(dsn string) (*sql.DB, error) {
	if err := RegisterSphereFunctions(nil); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", dsn)
}
