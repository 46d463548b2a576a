// Package database opens the SQLite handle every other package shares.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Single-writer tuning. The state machine runs every operation as one
// BEGIN IMMEDIATE transaction, so the busy timeout is the wait budget a
// competing writer gets before its transaction fails.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
	"PRAGMA synchronous=NORMAL",
}

// Open creates a SQLite connection via libSQL, applies the pragmas above,
// and verifies the handle with a ping.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	for _, p := range pragmas {
		if err := exec(ctx, db, p); err != nil {
			db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return db, nil
}

// exec runs a pragma through QueryContext: libSQL rejects Exec for pragmas
// that return rows, and draining the rows handles both kinds uniformly.
func exec(ctx context.Context, db *sql.DB, pragma string) error {
	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return fmt.Errorf("executing %s: %w", pragma, err)
	}
	return rows.Close()
}
