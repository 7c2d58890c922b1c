package database

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// GetConfigValue retrieves a configuration value from the config table
func (db *Database) GetConfigValue(ctx context.Context, key string) (string, error) {
	var value string
	err := retryableQueryRowScan(ctx, db.mainDB, "SELECT value FROM config WHERE key = ?", []interface{}{key}, &value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil // Return empty string for missing keys
		}
		return "", err
	}
	return value, nil
}

// SetConfigValue sets or updates a configuration value in the config table
func (db *Database) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := retryableExec(ctx, db.mainDB, `
		INSERT OR REPLACE INTO config (key, value)
		VALUES (?, ?)
	`, key, value)
	return err
}

// GetConfigTime reads a unix timestamp setting; the zero time means unset
func (db *Database) GetConfigTime(ctx context.Context, key string) (time.Time, error) {
	value, err := db.GetConfigValue(ctx, key)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0).UTC(), nil
}

// SetConfigTime stores a timestamp setting with second precision
func (db *Database) SetConfigTime(ctx context.Context, key string, t time.Time) error {
	return db.SetConfigValue(ctx, key, strconv.FormatInt(t.Unix(), 10))
}
