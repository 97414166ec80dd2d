package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultSQLiteFile is the database file name used when the location is a directory
const DefaultSQLiteFile = "infinity-clipboard.db"

// SQLiteBackend stores values in a single-table SQLite database
type SQLiteBackend struct {
	path string
	db   *sql.DB
}

// NewSQLiteBackend creates a backend over the database file at path
func NewSQLiteBackend(path string) *SQLiteBackend {
	return &SQLiteBackend{path: path}
}

// Type returns the backend type
func (b *SQLiteBackend) Type() BackendType {
	return BackendSQLite
}

// GetLocation returns the database file path
func (b *SQLiteBackend) GetLocation() string {
	return b.path
}

// SetLocation changes the database path. An open database is closed.
func (b *SQLiteBackend) SetLocation(location string) error {
	if location != "" && !filepath.IsAbs(location) {
		return fmt.Errorf("path must be absolute: %s", location)
	}
	if b.db != nil {
		b.db.Close()
		b.db = nil
	}
	b.path = location
	return nil
}

// Init opens the database and creates the schema
func (b *SQLiteBackend) Init(ctx context.Context) error {
	if b.path == "" {
		return ErrNotConfigured
	}
	if b.db != nil {
		return nil
	}

	if info, err := os.Stat(b.path); err == nil && info.IsDir() {
		b.path = filepath.Join(b.path, DefaultSQLiteFile)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), DirPermissions); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", b.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create table: %w", err)
	}

	b.db = db
	return nil
}

// Close closes the database
func (b *SQLiteBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// Read returns the value stored under key
func (b *SQLiteBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if b.db == nil {
		return nil, ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var value []byte
	err := b.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return value, nil
}

// Write upserts the value stored under key
func (b *SQLiteBackend) Write(ctx context.Context, key string, data []byte) error {
	if b.db == nil {
		return ErrNotConfigured
	}
	if err := ValidateKey(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}

	_, err := b.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert failed: %w", err)
	}
	return nil
}

// Exists returns true if key has a row
func (b *SQLiteBackend) Exists(ctx context.Context, key string) bool {
	if b.db == nil {
		return false
	}
	var n int
	err := b.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM kv WHERE key = ?`, key).Scan(&n)
	return err == nil && n > 0
}
