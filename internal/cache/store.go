// Package cache provides the on-device cache database for TibiBalance
// entities.
//
// The cache is the single source of truth for everything the UI renders.
// It runs on embedded SQLite with WAL mode for concurrent reads.
//
// Architecture:
//   - One table per entity type, primary key = entity id
//   - Habit, template and activity rows store the payload as a JSON blob
//     plus the id for forward compatibility
//   - Profile rows store individual scalar columns
//   - Every committed write signals the watch hub so Observe* streams
//     re-emit
//
// Two independent paths write here: user-initiated repository mutations and
// inbound sync diffs. Correctness relies on every write being a key-addressed
// full-row upsert or delete, so interleaved writers converge.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite cache database.
type Store struct {
	conn *sql.DB
	path string
	hub  *hub
}

// Open creates a new cache database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If it doesn't exist it is created; call InitSchema before first use.
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		conn: conn,
		path: path,
		hub:  newHub(),
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := s.conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return s, nil
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close cache database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the cache tables if they don't exist. Idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS habits (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS habit_templates (
		id   TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS emotions (
		date        TEXT PRIMARY KEY,
		mood        TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activities (
		id       TEXT NOT NULL PRIMARY KEY,
		habit_id TEXT NOT NULL,
		data     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activities_habit ON activities(habit_id);

	CREATE TABLE IF NOT EXISTS profile (
		uid          TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email        TEXT,
		photo_url    TEXT,
		birth_date   TEXT
	);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return nil
}
