// Package sqlite implements repository.SnapshotStore on top of SQLite.
//
// The entity store still owns all state in memory; this backend only changes
// where the snapshot lives. Instead of one JSON document, the snapshot is
// spread over three tables (users, sets, cards) and every Save rewrites them
// inside a single transaction. A crash mid-save rolls back to the previous
// snapshot instead of leaving a half-written one.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so no C compiler is needed and the
// binary cross-compiles like any other Go program.
package sqlite

import (
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
//   - "data/flipit.db" → file-based database (persistent)
//   - ":memory:"       → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	// The store serialises access anyway, so one connection costs nothing.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; cards reference sets and
	// sets reference users.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the tables. CREATE TABLE IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sets (
			id      TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			title   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sets_user_id ON sets(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating sets table: %w", err)
	}

	// description arrived after the first schema; older databases get the
	// column with its default instead of failing to load.
	if err := db.addColumnIfNotExists("sets", "description",
		"TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding description to sets: %w", err)
	}

	// position keeps cards in insertion order; ids are only unique per set.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cards (
			set_id   TEXT NOT NULL REFERENCES sets(id) ON DELETE CASCADE,
			id       TEXT NOT NULL,
			position INTEGER NOT NULL,
			front    TEXT NOT NULL DEFAULT '',
			back     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (set_id, id)
		);
		CREATE INDEX IF NOT EXISTS idx_cards_set_position ON cards(set_id, position);
	`)
	if err != nil {
		return fmt.Errorf("creating cards table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}
