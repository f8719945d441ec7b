// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// The driver is modernc.org/sqlite — a pure Go translation of SQLite, so no
// C compiler is needed and cross-compilation stays painless. It registers
// itself with database/sql under the name "sqlite" via the blank import.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/sakif/gift-registry/internal/model"
)

// DB owns the sql.DB connection pool and exposes the two stores built on
// it. Both stores share the pool, so a single writer queue covers all
// tables.
type DB struct {
	conn *sql.DB

	Gifts    *GiftStore
	BigGifts *BigGiftStore
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/registry.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite allows exactly one writer at a time. Funnelling everything
	// through a single pooled connection turns concurrent writers into a
	// queue instead of SQLITE_BUSY errors, and keeps ":memory:" databases
	// coherent (each new connection to ":memory:" would otherwise get its
	// own empty database).
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL keeps the database file consistent across crashes mid-write.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The contributions table
	// relies on ON DELETE CASCADE, so they must be on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{
		conn:     conn,
		Gifts:    &GiftStore{conn: conn},
		BigGifts: &BigGiftStore{conn: conn},
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer Close() next to
// the New() call so the WAL is flushed and the file lock released.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the three tables. CREATE TABLE IF NOT EXISTS keeps this
// safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS gifts (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			description        TEXT NOT NULL,
			image_path         TEXT NOT NULL,
			approximate_price  REAL NOT NULL,
			currency           TEXT NOT NULL DEFAULT 'EUR',
			purchase_links     TEXT NOT NULL DEFAULT '[]',
			is_taken           INTEGER NOT NULL DEFAULT 0,
			taken_by           TEXT,
			hide_reserver_name INTEGER NOT NULL DEFAULT 0,
			created_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_gifts_is_taken ON gifts(is_taken);
	`)
	if err != nil {
		return fmt.Errorf("creating gifts table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS big_gifts (
			id                TEXT PRIMARY KEY,
			name              TEXT NOT NULL,
			description       TEXT NOT NULL,
			image_path        TEXT NOT NULL,
			target_amount     REAL NOT NULL,
			current_amount    REAL NOT NULL DEFAULT 0,
			currency          TEXT NOT NULL DEFAULT 'EUR',
			purchase_links    TEXT NOT NULL DEFAULT '[]',
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating big_gifts table: %w", err)
	}

	// Contributions are exclusively owned by their big gift: the cascade
	// guarantees no orphaned rows.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS contributions (
			id                    TEXT PRIMARY KEY,
			big_gift_id           TEXT NOT NULL REFERENCES big_gifts(id) ON DELETE CASCADE,
			name                  TEXT NOT NULL,
			amount                REAL NOT NULL,
			email                 TEXT,
			message               TEXT,
			hide_contributor_name INTEGER NOT NULL DEFAULT 0,
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_contributions_big_gift_id ON contributions(big_gift_id);
	`)
	if err != nil {
		return fmt.Errorf("creating contributions table: %w", err)
	}

	return nil
}

// encodeLinks serialises purchase links for the TEXT column. nil encodes as
// "[]" so the column is never NULL.
func encodeLinks(links []model.PurchaseLink) (string, error) {
	if links == nil {
		links = []model.PurchaseLink{}
	}
	raw, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("encoding purchase links: %w", err)
	}
	return string(raw), nil
}

// decodeLinks parses a purchase_links column value. A corrupt value degrades
// to an empty list rather than failing the whole read — a broken link list
// should never make a gift unlistable.
func decodeLinks(id, raw string) []model.PurchaseLink {
	links := []model.PurchaseLink{}
	if raw == "" {
		return links
	}
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		slog.Warn("sqlite: dropping unparseable purchase links",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return []model.PurchaseLink{}
	}
	return links
}
