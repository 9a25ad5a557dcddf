package sphere

import (
	"database/sql"
)

const placesSchema = `
CREATE TABLE IF NOT EXISTS places (
    id TEXT PRIMARY KEY,
    label TEXT,
    meta TEXT,
    point BLOB NOT NULL
);
`

// EnsureSchema creates the places table in the provided database if it does
// not already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(placesSchema)
	return err
}
