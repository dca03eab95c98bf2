// Package persistence provides SQLite-based storage for the pet: a small
// key/value table holding the needs snapshot and an append-only history of
// stat changes.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/desk-pet/internal/needs"
)

// DB wraps a SQLite connection for pet state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pet_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stat_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		stat TEXT NOT NULL,
		amount REAL NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_stat_events_at ON stat_events(at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO pet_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key returns sql.ErrNoRows.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM pet_meta WHERE key = ?", key)
	return value, err
}

// DeleteMeta removes a key. Deleting a missing key is not an error.
func (db *DB) DeleteMeta(ctx context.Context, key string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM pet_meta WHERE key = ?", key)
	return err
}

// Load implements needs.Store.
func (db *DB) Load(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := db.GetMeta(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return []byte(v), true, nil
}

// Save implements needs.Store.
func (db *DB) Save(ctx context.Context, key string, value []byte) error {
	if err := db.SaveMeta(ctx, key, string(value)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// StatEvent is one row of stat history.
type StatEvent struct {
	ID     int64      `json:"id"`
	At     time.Time  `json:"at"`
	Stat   needs.Stat `json:"stat"`
	Amount float64    `json:"amount"`
	Reason string     `json:"reason"`
}

type statEventRow struct {
	ID     int64   `db:"id"`
	At     int64   `db:"at"`
	Stat   string  `db:"stat"`
	Amount float64 `db:"amount"`
	Reason string  `db:"reason"`
}

// SaveStatEvents appends deltas stamped with at.
func (db *DB) SaveStatEvents(ctx context.Context, at time.Time, deltas []needs.Delta) error {
	if len(deltas) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range deltas {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO stat_events (at, stat, amount, reason) VALUES (?, ?, ?, ?)",
			at.UnixMilli(), string(d.Stat), d.Amount, d.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert stat event %s: %w", d.Stat, err)
		}
	}

	return tx.Commit()
}

// RecentStatEvents returns the most recent N stat events, newest first.
func (db *DB) RecentStatEvents(ctx context.Context, limit int) ([]StatEvent, error) {
	var rows []statEventRow
	err := db.conn.SelectContext(ctx, &rows,
		"SELECT id, at, stat, amount, reason FROM stat_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]StatEvent, len(rows))
	for i, r := range rows {
		out[i] = StatEvent{
			ID:     r.ID,
			At:     time.UnixMilli(r.At),
			Stat:   needs.Stat(r.Stat),
			Amount: r.Amount,
			Reason: r.Reason,
		}
	}
	return out, nil
}

// ClearStatEvents drops the whole history.
func (db *DB) ClearStatEvents(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM stat_events")
	return err
}
