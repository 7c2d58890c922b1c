package database

import (
	"context"
	"fmt"

	"github.com/go-while/go-pugwiki/internal/models"
)

// PageExists reports whether a page row exists for the namespace and DB key
func (db *Database) PageExists(ctx context.Context, namespace, dbKey string) (bool, error) {
	var exists int
	err := retryableQueryRowScan(ctx, db.mainDB,
		`SELECT EXISTS(SELECT 1 FROM page WHERE page_namespace = ? AND page_title = ?)`,
		[]interface{}{namespace, dbKey}, &exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up page %s:%s: %w", namespace, dbKey, err)
	}
	return exists == 1, nil
}

// AddPage registers a page so links to it render as existing
func (db *Database) AddPage(ctx context.Context, page *models.WikiPage) error {
	res, err := retryableExec(ctx, db.mainDB,
		`INSERT OR IGNORE INTO page (page_namespace, page_title, page_is_redirect) VALUES (?, ?, ?)`,
		page.Namespace, page.Title, page.IsRedirect)
	if err != nil {
		return fmt.Errorf("failed to add page %s:%s: %w", page.Namespace, page.Title, err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		page.ID = id
	}
	return nil
}
