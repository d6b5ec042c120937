package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=10000",
	"PRAGMA synchronous=NORMAL",
}

// OpenSQLite opens (creating if needed) a tracker database file.
func OpenSQLite(ctx context.Context, path string) (Tracker, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite tracker: empty database path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; batch workers queue on the pool instead of SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	t, err := newSQLTracker(ctx, db, keepQuestionMarks)
	if err != nil {
		db.Close()
		return nil, err
	}
	return t, nil
}
