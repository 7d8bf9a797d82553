// Package persistence provides SQLite-based local save storage: a key-value
// table holding the current save under a well-known key, and a history of
// labelled snapshots.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SaveKey is the key the current save lives under.
const SaveKey = "atom-clicker.save"

// ErrNotFound is returned when a key or snapshot does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps a SQLite connection for save storage.
type DB struct {
	conn *sqlx.DB
}

// Snapshot is a labelled copy of save text.
type Snapshot struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	Data      string    `json:"data,omitempty"`
}

type snapshotRow struct {
	ID        string `db:"id"`
	Label     string `db:"label"`
	CreatedAt int64  `db:"created_at"` // unix nanoseconds
	Data      string `db:"data"`
}

func (r snapshotRow) snapshot() Snapshot {
	return Snapshot{ID: r.ID, Label: r.Label, CreatedAt: time.Unix(0, r.CreatedAt).UTC(), Data: r.Data}
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
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
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		data TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Put stores value under key, replacing any previous value.
func (db *DB) Put(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, value, time.Now().UnixNano(),
	)
	return err
}

// Get returns the value stored under key, or ErrNotFound.
func (db *DB) Get(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Has reports whether key holds a value.
func (db *DB) Has(key string) (bool, error) {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM kv WHERE key = ?", key); err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(key string) error {
	_, err := db.conn.Exec("DELETE FROM kv WHERE key = ?", key)
	return err
}

// SaveSnapshot records data as a new snapshot.
func (db *DB) SaveSnapshot(label, data string) (Snapshot, error) {
	row := snapshotRow{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: time.Now().UnixNano(),
		Data:      data,
	}
	_, err := db.conn.NamedExec(
		"INSERT INTO snapshots (id, label, created_at, data) VALUES (:id, :label, :created_at, :data)",
		row,
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	slog.Info("snapshot saved", "id", row.ID, "label", label, "bytes", len(data))
	return row.snapshot(), nil
}

// ListSnapshots returns the newest snapshots first, without their data.
func (db *DB) ListSnapshots(limit int) ([]Snapshot, error) {
	var rows []snapshotRow
	err := db.conn.Select(&rows,
		"SELECT id, label, created_at, '' AS data FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.snapshot())
	}
	return out, nil
}

// GetSnapshot returns one snapshot with its data, or ErrNotFound.
func (db *DB) GetSnapshot(id string) (Snapshot, error) {
	var row snapshotRow
	err := db.conn.Get(&row, "SELECT id, label, created_at, data FROM snapshots WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	return row.snapshot(), nil
}

func (db *DB) allSnapshots() ([]Snapshot, error) {
	var rows []snapshotRow
	if err := db.conn.Select(&rows, "SELECT id, label, created_at, data FROM snapshots ORDER BY created_at, rowid"); err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.snapshot())
	}
	return out, nil
}
