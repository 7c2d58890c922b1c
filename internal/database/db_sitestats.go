package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-while/go-pugwiki/internal/models"
)

// BotGroup members are excluded from the active user count
const BotGroup = "bot"

// LoadSiteStats reads the single site_stats row
func (db *Database) LoadSiteStats(ctx context.Context) (*models.SiteStats, error) {
	query := `SELECT ss_total_edits, ss_good_articles, ss_total_pages, ss_users, ss_active_users, ss_images, ss_updated_at
	          FROM site_stats WHERE ss_row_id = 1`

	var s models.SiteStats
	err := retryableQueryRowScan(ctx, db.mainDB, query, nil,
		&s.Edits, &s.Articles, &s.Pages, &s.Users, &s.ActiveUsers, &s.Images, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load site stats: %w", err)
	}
	return &s, nil
}

// SaveSiteStats overwrites all counters, used when importing or seeding a wiki
func (db *Database) SaveSiteStats(ctx context.Context, s *models.SiteStats) error {
	query := `INSERT INTO site_stats (ss_row_id, ss_total_edits, ss_good_articles, ss_total_pages, ss_users, ss_active_users, ss_images, ss_updated_at)
	          VALUES (1, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	          ON CONFLICT(ss_row_id) DO UPDATE SET
	            ss_total_edits = excluded.ss_total_edits,
	            ss_good_articles = excluded.ss_good_articles,
	            ss_total_pages = excluded.ss_total_pages,
	            ss_users = excluded.ss_users,
	            ss_active_users = excluded.ss_active_users,
	            ss_images = excluded.ss_images,
	            ss_updated_at = CURRENT_TIMESTAMP`

	if _, err := retryableExec(ctx, db.mainDB, query, s.Edits, s.Articles, s.Pages, s.Users, s.ActiveUsers, s.Images); err != nil {
		return fmt.Errorf("failed to save site stats: %w", err)
	}
	return nil
}

// NumberInGroup counts the members of an explicit user group
func (db *Database) NumberInGroup(ctx context.Context, group string) (int64, error) {
	var count int64
	err := retryableQueryRowScan(ctx, db.mainDB,
		`SELECT COUNT(*) FROM user_groups WHERE group_name = ?`, []interface{}{group}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members of group %s: %w", group, err)
	}
	return count, nil
}

// CountActiveUsers counts distinct registered, non-bot users with a recent change
// at or after since. Account creation log entries do not count as activity.
func (db *Database) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	query := `SELECT COUNT(DISTINCT rc_user) FROM recentchanges
	          WHERE rc_user != 0
	            AND rc_timestamp >= ?
	            AND NOT (rc_type = ? AND rc_log_type = 'newusers')
	            AND rc_user NOT IN (SELECT user_id FROM user_groups WHERE group_name = ?)`

	var count int64
	err := retryableQueryRowScan(ctx, db.mainDB, query,
		[]interface{}{since.UTC(), models.RCLog, BotGroup}, &count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}

// SetActiveUsers stores a freshly computed active user count
func (db *Database) SetActiveUsers(ctx context.Context, count int64) error {
	_, err := retryableExec(ctx, db.mainDB,
		`UPDATE site_stats SET ss_active_users = ?, ss_updated_at = CURRENT_TIMESTAMP WHERE ss_row_id = 1`, count)
	if err != nil {
		return fmt.Errorf("failed to update active users: %w", err)
	}
	return nil
}

// AddRecentChange records one entry in the recent changes feed
func (db *Database) AddRecentChange(ctx context.Context, rc *models.RecentChange) error {
	if rc.Type == "" {
		rc.Type = models.RCEdit
	}
	if rc.Timestamp.IsZero() {
		rc.Timestamp = time.Now()
	}
	res, err := retryableExec(ctx, db.mainDB,
		`INSERT INTO recentchanges (rc_timestamp, rc_user, rc_type, rc_log_type, rc_namespace, rc_title)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rc.Timestamp.UTC(), rc.UserID, rc.Type, rc.LogType, rc.Namespace, rc.Title)
	if err != nil {
		return fmt.Errorf("failed to add recent change: %w", err)
	}
	id, err := res.LastInsertId()
	if err == nil {
		rc.ID = id
	}
	return nil
}
