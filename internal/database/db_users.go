package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-while/go-pugwiki/internal/models"
	"github.com/mattn/go-sqlite3"
)

// ErrUserNotFound is returned when a username does not exist
var ErrUserNotFound = errors.New("user not found")

// CreateUser inserts a new user and bumps the registered user counter
func (db *Database) CreateUser(ctx context.Context, user *models.User) error {
	return retryableTransactionExec(ctx, db.mainDB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (username, email, password_hash, created_at, updated_at)
			 VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
			user.Username, user.Email, user.PasswordHash)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("user %s already exists", user.Username)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		user.ID = id
		if _, err := tx.ExecContext(ctx, `UPDATE site_stats SET ss_users = ss_users + 1 WHERE ss_row_id = 1`); err != nil {
			return fmt.Errorf("failed to update user count: %w", err)
		}
		return nil
	})
}

// GetUserByUsername looks up a user by exact name
func (db *Database) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := retryableQueryRowScan(ctx, db.mainDB,
		`SELECT id, username, email, password_hash, edit_count, created_at, updated_at FROM users WHERE username = ?`,
		[]interface{}{username},
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EditCount, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", username, err)
	}
	return &u, nil
}

// ListUsers returns users ordered by name, optionally limited to one group
func (db *Database) ListUsers(ctx context.Context, group string) ([]*models.User, error) {
	query := `SELECT id, username, email, password_hash, edit_count, created_at, updated_at FROM users ORDER BY username`
	var args []interface{}
	if group != "" {
		query = `SELECT u.id, u.username, u.email, u.password_hash, u.edit_count, u.created_at, u.updated_at
		         FROM users u JOIN user_groups g ON g.user_id = u.id
		         WHERE g.group_name = ? ORDER BY u.username`
		args = append(args, group)
	}

	rows, err := retryableQuery(ctx, db.mainDB, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.EditCount, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// AddUserToGroup grants an explicit group; adding an existing membership is a no-op
func (db *Database) AddUserToGroup(ctx context.Context, userID int64, group string) error {
	_, err := retryableExec(ctx, db.mainDB,
		`INSERT OR IGNORE INTO user_groups (user_id, group_name, granted_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		userID, group)
	if err != nil {
		return fmt.Errorf("failed to add user %d to group %s: %w", userID, group, err)
	}
	return nil
}

// RemoveUserFromGroup revokes an explicit group and reports whether a membership was removed
func (db *Database) RemoveUserFromGroup(ctx context.Context, userID int64, group string) (bool, error) {
	res, err := retryableExec(ctx, db.mainDB,
		`DELETE FROM user_groups WHERE user_id = ? AND group_name = ?`, userID, group)
	if err != nil {
		return false, fmt.Errorf("failed to remove user %d from group %s: %w", userID, group, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetUserGroups returns the explicit groups of a user
func (db *Database) GetUserGroups(ctx context.Context, userID int64) ([]string, error) {
	rows, err := retryableQuery(ctx, db.mainDB,
		`SELECT group_name FROM user_groups WHERE user_id = ? ORDER BY group_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups of user %d: %w", userID, err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.ExtendedCode == sqlite3.ErrConstraintUnique
}
