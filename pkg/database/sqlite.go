// Package database opens the embedded store. Adapted from the teacher's
// pkg/database/pgsql.go: same "parse, open, ping" shape, but against a
// single sqlite file instead of a Postgres connection pool, since spec.md
// §2 requires the store to be a single-file transactional store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if absent) the sqlite file at path and configures it
// for the concurrency model spec.md §5 describes: WAL journaling so readers
// never block on an in-flight writer, a busy timeout so concurrent writers
// queue instead of failing immediately, and foreign keys on.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file %q: %w", path, err)
	}

	// SQLite allows only one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under the ulule/limiter-bounded request concurrency
	// this service expects.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("opened store", slog.String("path", path))
	return db, nil
}

// Close closes the database, logging but not returning close errors, matching
// the teacher's ClosePgxPool behavior for use in defer statements.
func Close(db *sql.DB) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		slog.Error("error closing database", slog.String("error", err.Error()))
	}
	slog.Info("store closed")
}
