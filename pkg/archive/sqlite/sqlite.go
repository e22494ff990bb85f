// Package sqlite provides a SQLite-backed archive driver.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spectralworks/specmatch/pkg/archive/sqldriver"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	workflow BLOB,
	query_count INTEGER NOT NULL DEFAULT 0,
	reference_count INTEGER NOT NULL DEFAULT 0,
	score_count INTEGER NOT NULL DEFAULT 0,
	score_data BLOB
)`

// Driver implements archive.Driver using SQLite.
type Driver struct {
	*sqldriver.Driver
}

// NewDriver creates a new SQLite-backed archive. The dbPath can be a
// file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{
		Driver: &sqldriver.Driver{DB: db, Dialect: sqldriver.SQLite},
	}, nil
}
