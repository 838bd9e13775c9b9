// Package sqlite provides SQLite-based persistent storage for focusera.
// Uses WAL mode for concurrent reads and crash-safe writes. It backs the
// local profile store and always holds the notification outbox.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer; one connection also serializes transactions.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// ─── Profiles ───────────────────────────────────────────────────
		`CREATE TABLE IF NOT EXISTS profiles (
			user_id          TEXT PRIMARY KEY,
			username         TEXT NOT NULL UNIQUE,
			photo_url        TEXT NOT NULL DEFAULT '',
			total_focus_time INTEGER NOT NULL DEFAULT 0,
			streak           INTEGER NOT NULL DEFAULT 0,
			last_study_date  TEXT NOT NULL DEFAULT '',
			unlocked_badges  TEXT NOT NULL DEFAULT '[]',
			friends          TEXT NOT NULL DEFAULT '[]',
			friend_requests  TEXT NOT NULL DEFAULT '[]',
			created_at       INTEGER NOT NULL
		)`,

		// Per-day focus log; authoritative over profiles.total_focus_time
		`CREATE TABLE IF NOT EXISTS daily_logs (
			user_id TEXT NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
			day     TEXT NOT NULL,
			seconds INTEGER NOT NULL,
			PRIMARY KEY (user_id, day)
		)`,

		// ─── Planner ────────────────────────────────────────────────────
		`CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			text       TEXT NOT NULL,
			due_date   TEXT NOT NULL DEFAULT '',
			priority   TEXT NOT NULL DEFAULT 'Medium',
			done       BOOLEAN NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id)`,

		// ─── Notification outbox (policy: daily cap, quiet hours) ───────
		`CREATE TABLE IF NOT EXISTS notifications (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			shown      BOOLEAN DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notif_user_created ON notifications(user_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS devices (
			token    TEXT PRIMARY KEY,
			user_id  TEXT NOT NULL,
			platform TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_devices_user ON devices(user_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// encodeList stores a string list as a JSON array column.
func encodeList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

func decodeList(s string) ([]string, error) {
	list := []string{}
	if s == "" {
		return list, nil
	}
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, fmt.Errorf("decode list column: %w", err)
	}
	return list, nil
}
