package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database connection and configures pragmas. It
// reports whether the file did not exist before.
func Open(path string) (*sql.DB, bool, error) {
	_, err := os.Stat(path)
	created := errors.Is(err, fs.ErrNotExist)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, false, fmt.Errorf("opening database: %w", err)
	}

	// WAL lets the station streams read while an order is written.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, false, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, created, nil
}
