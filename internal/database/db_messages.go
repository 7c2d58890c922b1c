package database

import (
	"context"
	"fmt"

	"github.com/go-while/go-pugwiki/internal/models"
)

// ListMessageOverrides returns all site-local message texts
func (db *Database) ListMessageOverrides(ctx context.Context) ([]*models.MessageOverride, error) {
	rows, err := retryableQuery(ctx, db.mainDB,
		`SELECT msg_key, msg_lang, msg_text, updated_at FROM message_overrides ORDER BY msg_lang, msg_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list message overrides: %w", err)
	}
	defer rows.Close()

	var list []*models.MessageOverride
	for rows.Next() {
		var m models.MessageOverride
		if err := rows.Scan(&m.Key, &m.Language, &m.Text, &m.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// SetMessageOverride creates or replaces a site-local message text
func (db *Database) SetMessageOverride(ctx context.Context, key, lang, text string) error {
	_, err := retryableExec(ctx, db.mainDB,
		`INSERT INTO message_overrides (msg_key, msg_lang, msg_text, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(msg_key, msg_lang) DO UPDATE SET msg_text = excluded.msg_text, updated_at = CURRENT_TIMESTAMP`,
		key, lang, text)
	if err != nil {
		return fmt.Errorf("failed to set message %s/%s: %w", key, lang, err)
	}
	return nil
}

// DeleteMessageOverride removes a site-local text so the built-in one applies again
func (db *Database) DeleteMessageOverride(ctx context.Context, key, lang string) (bool, error) {
	res, err := retryableExec(ctx, db.mainDB,
		`DELETE FROM message_overrides WHERE msg_key = ? AND msg_lang = ?`, key, lang)
	if err != nil {
		return false, fmt.Errorf("failed to delete message %s/%s: %w", key, lang, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
