// Package state persists the small amount of client-local durable state:
// the upload cooldown expiry (so a restarted client resumes the exact
// server-dictated wait), the list/grid view preference, and arbitrary
// client metadata. Nothing here is a source of truth for the library
// itself - the server owns that.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sndctl/internal/state/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// View preferences for the sound listing. Pure UI state with durable
// storage; the cache layers never read it.
const (
	ViewList = "list"
	ViewGrid = "grid"
)

const viewPreferenceKey = "view_preference"

// Store is the durable client-state contract.
type Store interface {
	SaveCooldown(expiry time.Time) error
	ClearCooldown() error
	// Cooldown returns the persisted expiry; ok is false when none is
	// stored.
	Cooldown() (expiry time.Time, ok bool, err error)

	ViewPreference() (string, error)
	SetViewPreference(mode string) error

	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error

	Close() error
}

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the state database at path and brings
// its schema up to date. path may be ":memory:" for tests.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating state database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// SaveCooldown stores the absolute cooldown expiry, replacing any
// previous one.
func (s *SQLiteStore) SaveCooldown(expiry time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO cooldown (id, expires_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET expires_at = excluded.expires_at`,
		expiry.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving cooldown: %w", err)
	}
	return nil
}

// ClearCooldown removes any stored cooldown expiry.
func (s *SQLiteStore) ClearCooldown() error {
	if _, err := s.db.Exec(`DELETE FROM cooldown WHERE id = 1`); err != nil {
		return fmt.Errorf("clearing cooldown: %w", err)
	}
	return nil
}

// Cooldown returns the stored expiry, if any.
func (s *SQLiteStore) Cooldown() (time.Time, bool, error) {
	var ms int64
	err := s.db.QueryRow(`SELECT expires_at FROM cooldown WHERE id = 1`).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading cooldown: %w", err)
	}
	return time.UnixMilli(ms), true, nil
}

// ViewPreference returns the stored display mode. Missing or unknown
// values fall back to ViewList.
func (s *SQLiteStore) ViewPreference() (string, error) {
	value, ok, err := s.Get(viewPreferenceKey)
	if err != nil {
		return "", err
	}
	if !ok || (value != ViewList && value != ViewGrid) {
		return ViewList, nil
	}
	return value, nil
}

// SetViewPreference stores the display mode.
func (s *SQLiteStore) SetViewPreference(mode string) error {
	if mode != ViewList && mode != ViewGrid {
		return fmt.Errorf("view preference must be %q or %q", ViewList, ViewGrid)
	}
	return s.Set(viewPreferenceKey, mode)
}

// Get reads an arbitrary metadata value.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes an arbitrary metadata value.
func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}
