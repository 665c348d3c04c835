// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database. It lives inside the Go binary as a single file.
// No separate database server to install, which makes it the default backend:
// `espresso seed && espresso serve` works on a fresh checkout. The Mongo
// backend (repository/mongo) is there for deployments that already run one.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler and painful
// cross-compilation. modernc.org/sqlite is a pure Go translation of SQLite.
//
// DOCUMENTS AS TABLES:
// The café data is document-shaped (a user carries a list of voted reviews and
// a list of owned cafés; a café carries a menu). Each list lives in its own
// child table, which is what lets AddVote be a single INSERT OR IGNORE instead
// of a load-append-save cycle.
//
//	users ─┬─ user_votes (username, review_id)
//	       └─ user_cafes (username, cafe_name)
//	cafes ─── cafe_items (cafe_ref, item)
//	reviews
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and hands out the three repositories.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/espresso.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
//
// ONE CONNECTION:
// Each connection to ":memory:" opens its own empty database, and SQLite
// allows only one writer at a time anyway, so the pool is capped at a single
// connection. database/sql queues callers for it. Every query in this package
// therefore closes its rows before issuing the next one.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	// Ping verifies the connection actually works, so a bad path or
	// permissions issue surfaces here instead of on the first request.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The child tables rely on
	// ON DELETE CASCADE.
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

// Ping checks the database is still reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users returns the user repository.
func (db *DB) Users() *UserStore {
	return &UserStore{conn: db.conn}
}

// Cafes returns the café repository.
func (db *DB) Cafes() *CafeStore {
	return &CafeStore{conn: db.conn}
}

// Reviews returns the review repository.
func (db *DB) Reviews() *ReviewStore {
	return &ReviewStore{conn: db.conn}
}

// migrate creates the schema. CREATE ... IF NOT EXISTS makes it safe to run
// on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			profile_pic   TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS user_votes (
			username  TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			review_id TEXT NOT NULL,
			UNIQUE (username, review_id)
		);

		CREATE TABLE IF NOT EXISTS user_cafes (
			username  TEXT NOT NULL REFERENCES users(username) ON DELETE CASCADE,
			cafe_name TEXT NOT NULL,
			UNIQUE (username, cafe_name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS cafes (
			id          TEXT PRIMARY KEY,
			cafe_id     INTEGER NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			rating      REAL NOT NULL DEFAULT 0,
			owner       TEXT NOT NULL DEFAULT '',
			address     TEXT NOT NULL DEFAULT '',
			price_range TEXT NOT NULL DEFAULT '',
			image_name  TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_cafes_name ON cafes(name);

		CREATE TABLE IF NOT EXISTS cafe_items (
			cafe_ref TEXT NOT NULL REFERENCES cafes(id) ON DELETE CASCADE,
			item     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_cafe_items_cafe_ref ON cafe_items(cafe_ref);
	`)
	if err != nil {
		return fmt.Errorf("creating cafe tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS reviews (
			id             TEXT PRIMARY KEY,
			username       TEXT NOT NULL,
			cafe           TEXT NOT NULL,
			cafe_id        INTEGER NOT NULL DEFAULT 0,
			image_src      TEXT NOT NULL DEFAULT '',
			rating         INTEGER NOT NULL DEFAULT 0,
			comment        TEXT NOT NULL DEFAULT '',
			date           TEXT NOT NULL DEFAULT '',
			helpful        INTEGER NOT NULL DEFAULT 0,
			unhelpful      INTEGER NOT NULL DEFAULT 0,
			owner_response TEXT NOT NULL DEFAULT '',
			edited         INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_reviews_cafe ON reviews(cafe);
		CREATE INDEX IF NOT EXISTS idx_reviews_username ON reviews(username);
	`)
	if err != nil {
		return fmt.Errorf("creating reviews table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is SQLite rejecting a duplicate key.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// count runs SELECT COUNT(*) against table. table is always a package
// constant, never user input.
func count(ctx context.Context, conn *sql.DB, table string) (int64, error) {
	var n int64
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting %s: %w", table, err)
	}
	return n, nil
}

// inTx runs fn inside a transaction, committing on success.
func inTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}
