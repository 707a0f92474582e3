// Package store owns the sqlite catalog of albums and songs. It carries no
// business logic beyond schema integrity; callers decide what failed inserts
// mean.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/cesargomez89/lavender/internal/constants"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("not found")

type DB struct {
	*sqlx.DB
}

// Open opens (creating if necessary) the catalog database at dsn. The handle
// is shared process-wide by injection; every statement commits independently.
func Open(dsn string) (*DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// Set pragmas for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=30000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// tableExists checks sqlite_master by name only. A table with the right name
// but the wrong columns is treated as present and will fail later inserts.
func (db *DB) tableExists(name string) (bool, error) {
	var found string
	err := db.Get(&found, `SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query sqlite_master: %w", err)
	}
	return true, nil
}

// EnsureSchema creates the albums and songs tables when absent and is a no-op
// otherwise. Calling it repeatedly leaves definitions unchanged.
func (db *DB) EnsureSchema() error {
	exists, err := db.tableExists(constants.AlbumsTable)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := db.Exec(createAlbumsTable); err != nil {
			return fmt.Errorf("failed to create albums table: %w", err)
		}
	}

	exists, err = db.tableExists(constants.SongsTable)
	if err != nil {
		return err
	}
	if !exists {
		if _, err := db.Exec(createSongsTable); err != nil {
			return fmt.Errorf("failed to create songs table: %w", err)
		}
	}

	return nil
}
