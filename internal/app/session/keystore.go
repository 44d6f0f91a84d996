/*
Package session owns the authenticated identity and its lifecycle.

This file implements the durable token keystore. Only the bearer token survives
process restarts, stored under a single fixed namespace key; the profile is
always re-derived from the gateway to avoid staleness.
*/
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Namespace is the fixed key the bearer token is stored under.
const Namespace = "questify-auth"

// KeyStore persists the bearer token across process restarts.
type KeyStore interface {
	// LoadToken returns the persisted token, or "" when none is stored.
	LoadToken(ctx context.Context) (string, error)

	// SaveToken writes the token, replacing any previous value.
	SaveToken(ctx context.Context, token string) error

	// ClearToken removes the persisted token. Clearing an absent token is not an error.
	ClearToken(ctx context.Context) error

	// Close releases the underlying storage.
	Close() error
}

// SQLiteKeyStore implements KeyStore on an embedded SQLite database.
type SQLiteKeyStore struct {
	db *sql.DB
}

// NewSQLiteKeyStore opens (creating if needed) the local state database at dbPath.
func NewSQLiteKeyStore(dbPath string) (*SQLiteKeyStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	// WAL mode so a crashed process never leaves the token half-written.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping state database: %w", err)
	}

	store := &SQLiteKeyStore{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize state schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteKeyStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS local_state (
		namespace TEXT PRIMARY KEY,
		bearer_token TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LoadToken returns the persisted token for the fixed namespace, or "" when absent.
func (s *SQLiteKeyStore) LoadToken(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT bearer_token FROM local_state WHERE namespace = ?`, Namespace)

	var token string
	err := row.Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("scan token row: %w", err)
	}
	return token, nil
}

// SaveToken upserts the token under the fixed namespace.
func (s *SQLiteKeyStore) SaveToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO local_state (namespace, bearer_token, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(namespace) DO UPDATE SET
		   bearer_token = excluded.bearer_token,
		   updated_at = excluded.updated_at`,
		Namespace, token, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ClearToken deletes the token row for the fixed namespace.
func (s *SQLiteKeyStore) ClearToken(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM local_state WHERE namespace = ?`, Namespace); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Close closes the state database.
func (s *SQLiteKeyStore) Close() error {
	return s.db.Close()
}
