package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTokenExpired is returned for tokens past their expiry
	ErrTokenExpired = errors.New("api token expired")
	// ErrTokenNotFound covers unknown and disabled tokens
	ErrTokenNotFound = errors.New("api token not found")
)

// APIToken is an admin API credential. Only the SHA-256 hash of the token is stored.
type APIToken struct {
	ID         int        `json:"id" db:"id"`
	APIToken   string     `json:"-" db:"apitoken"`
	OwnerName  string     `json:"ownername" db:"ownername"`
	OwnerID    int        `json:"ownerid" db:"ownerid"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at" db:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at" db:"expires_at"`
	IsEnabled  bool       `json:"is_enabled" db:"is_enabled"`
	UsageCount int        `json:"usage_count" db:"usage_count"`
}

const apiTokenColumns = `id, apitoken, ownername, ownerid, created_at, last_used_at, expires_at, is_enabled, usage_count`

func (t *APIToken) scanDest() []interface{} {
	return []interface{}{
		&t.ID, &t.APIToken, &t.OwnerName, &t.OwnerID,
		&t.CreatedAt, &t.LastUsedAt, &t.ExpiresAt,
		&t.IsEnabled, &t.UsageCount,
	}
}

// Expired reports whether the token has an expiry before now
func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && t.ExpiresAt.Before(now)
}

// GenerateAPIToken returns 32 random bytes as 64 hex characters
func GenerateAPIToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex SHA-256 of a plain token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateAPIToken stores a new token and returns it together with the plain
// token, which cannot be recovered later
func (db *Database) CreateAPIToken(ctx context.Context, ownerName string, ownerID int, expiresAt *time.Time) (*APIToken, string, error) {
	plain, err := GenerateAPIToken()
	if err != nil {
		return nil, "", err
	}
	token := &APIToken{
		APIToken:  HashToken(plain),
		OwnerName: ownerName,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
		IsEnabled: true,
	}
	if expiresAt != nil {
		exp := expiresAt.UTC()
		token.ExpiresAt = &exp
	}

	db.MainMutex.Lock()
	defer db.MainMutex.Unlock()

	res, err := retryableExec(ctx, db.mainDB,
		`INSERT INTO api_tokens (apitoken, ownername, ownerid, created_at, expires_at, is_enabled) VALUES (?, ?, ?, ?, ?, 1)`,
		token.APIToken, ownerName, ownerID, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return nil, "", fmt.Errorf("failed to store api token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, "", err
	}
	token.ID = int(id)
	return token, plain, nil
}

// ValidateAPIToken looks up an enabled token. It returns ErrTokenNotFound
// or ErrTokenExpired when the token cannot be used.
func (db *Database) ValidateAPIToken(ctx context.Context, plainToken string) (*APIToken, error) {
	db.MainMutex.RLock()
	defer db.MainMutex.RUnlock()

	var token APIToken
	err := retryableQueryRowScan(ctx, db.mainDB,
		`SELECT `+apiTokenColumns+` FROM api_tokens WHERE apitoken = ? AND is_enabled = 1`,
		[]interface{}{HashToken(plainToken)}, token.scanDest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	if token.Expired(time.Now()) {
		return nil, ErrTokenExpired
	}
	return &token, nil
}

// UpdateTokenUsage bumps usage_count and last_used_at
func (db *Database) UpdateTokenUsage(ctx context.Context, tokenID int) error {
	db.MainMutex.Lock()
	defer db.MainMutex.Unlock()

	_, err := retryableExec(ctx, db.mainDB,
		`UPDATE api_tokens SET last_used_at = ?, usage_count = usage_count + 1 WHERE id = ?`,
		time.Now().UTC(), tokenID)
	return err
}

// ListAPITokens returns all tokens, newest first
func (db *Database) ListAPITokens(ctx context.Context) ([]*APIToken, error) {
	db.MainMutex.RLock()
	defer db.MainMutex.RUnlock()

	rows, err := retryableQuery(ctx, db.mainDB,
		`SELECT `+apiTokenColumns+` FROM api_tokens ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*APIToken
	for rows.Next() {
		token := new(APIToken)
		if err := rows.Scan(token.scanDest()...); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// DisableAPIToken switches a token off. Unknown IDs give ErrTokenNotFound.
func (db *Database) DisableAPIToken(ctx context.Context, tokenID int) error {
	db.MainMutex.Lock()
	defer db.MainMutex.Unlock()

	res, err := retryableExec(ctx, db.mainDB, `UPDATE api_tokens SET is_enabled = 0 WHERE id = ?`, tokenID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// CleanupExpiredTokens deletes tokens whose expiry has passed
func (db *Database) CleanupExpiredTokens(ctx context.Context) (int, error) {
	db.MainMutex.Lock()
	defer db.MainMutex.Unlock()

	res, err := retryableExec(ctx, db.mainDB,
		`DELETE FROM api_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
