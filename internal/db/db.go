package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
    id            INTEGER PRIMARY KEY,
    kind          TEXT NOT NULL CHECK(kind IN ('city','coords')),
    city          TEXT,
    latitude      REAL,
    longitude     REAL,
    location_name TEXT,
    aqi_index     INTEGER CHECK(aqi_index BETWEEN 1 AND 5 OR aqi_index IS NULL),
    looked_up_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_lookups_looked_up_at ON lookups(looked_up_at DESC);
`

// Open opens or creates the SQLite database and initializes the schema.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}
