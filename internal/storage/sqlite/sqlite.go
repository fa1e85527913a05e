// Package sqlite provides SQLite-based storage implementation.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Storage implements the storage.Storage interface using SQLite
type Storage struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// New creates a new SQLite storage instance
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	storage := &Storage{db: db}

	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return storage, nil
}

// createSchema creates the database schema
func (s *Storage) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS api_keys (
		id           TEXT PRIMARY KEY,
		user_id      TEXT NOT NULL,
		name         TEXT NOT NULL,
		key_hash     TEXT NOT NULL,
		key_prefix   TEXT NOT NULL,
		rate_limit   INTEGER DEFAULT 0,
		is_active    INTEGER DEFAULT 1,
		last_used_at DATETIME,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		expires_at   DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_api_keys_prefix ON api_keys(key_prefix);
	CREATE INDEX IF NOT EXISTS idx_api_keys_user ON api_keys(user_id);

	CREATE TABLE IF NOT EXISTS request_logs (
		id                TEXT PRIMARY KEY,
		request_id        TEXT NOT NULL,
		user_id           TEXT NOT NULL,
		session_id        TEXT,
		model             TEXT NOT NULL,
		prompt_tokens     INTEGER DEFAULT 0,
		completion_tokens INTEGER DEFAULT 0,
		total_tokens      INTEGER DEFAULT 0,
		limit_hit         INTEGER DEFAULT 0,
		error_message     TEXT,
		duration_ms       INTEGER,
		created_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_logs_created ON request_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_logs_user ON request_logs(user_id);

	CREATE TABLE IF NOT EXISTS usage_daily (
		date          TEXT NOT NULL,
		user_id       TEXT NOT NULL,
		model         TEXT NOT NULL,
		request_count INTEGER DEFAULT 0,
		total_tokens  INTEGER DEFAULT 0,
		error_count   INTEGER DEFAULT 0,
		PRIMARY KEY (date, user_id, model)
	);

	CREATE INDEX IF NOT EXISTS idx_usage_date ON usage_daily(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
