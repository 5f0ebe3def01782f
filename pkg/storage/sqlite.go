package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	defaultMaxOpenConns    = 1 // SQLite serializes writers; a single conn avoids SQLITE_BUSY
	defaultConnMaxLifetime = 5 * time.Minute

	createTableStmt = `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
)

// SQLite is a Storage implementation backed by a local SQLite database.
// This is the durable device-local backend.
type SQLite struct {
	db *sqlx.DB
}

// NewSQLite opens (and if necessary creates) the key-value database at
// the given DSN. Use ":memory:" for an ephemeral instance.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite storage: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if _, err := db.Exec(createTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get returns the value stored under key.
func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("sqlite get: %w", err)
	}
	return value, nil
}

// Set stores value under key, overwriting any existing value.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

// Keys returns all stored keys with the given prefix.
func (s *SQLite) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	err := s.db.SelectContext(ctx, &keys,
		"SELECT key FROM kv WHERE key LIKE ? || '%'", prefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite keys: %w", err)
	}
	return keys, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
