package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SettingsRepo persists small workbench settings as string key/value pairs,
// e.g. whether safety equipment was enabled when the session ended.
type SettingsRepo struct{}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepo) Set(ctx context.Context, db *sql.DB, key, value string) error {
	const q = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key. A missing key yields the given
// fallback, not an error.
func (r *SettingsRepo) Get(ctx context.Context, db *sql.DB, key, fallback string) (string, error) {
	const q = `SELECT value FROM settings WHERE key = ?`

	var value string
	err := db.QueryRowContext(ctx, q, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}
