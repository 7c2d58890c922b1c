package database

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/mattn/go-sqlite3"
)

const (
	maxRetries = 50
	baseDelay  = 10 * time.Millisecond
	maxDelay   = 250 * time.Millisecond
)

// isRetryableError reports SQLITE_BUSY and SQLITE_LOCKED, the two codes a
// concurrent writer produces under WAL
func isRetryableError(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
}

// withRetry runs fn until it succeeds, fails with a non-lock error,
// ctx is done or maxRetries is reached
func withRetry(ctx context.Context, what string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = fn(); !isRetryableError(err) {
			return err
		}
		if attempt%10 == 9 {
			log.Printf("[DATABASE]: %s still locked after %d attempts: %v", what, attempt+1, err)
		}

		// exponential up to maxDelay, plus up to 50% jitter
		delay := baseDelay << min(attempt, 5)
		if delay > maxDelay {
			delay = maxDelay
		}
		delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return err
}

func retryableExec(ctx context.Context, db *sql.DB, query string, args ...interface{}) (res sql.Result, err error) {
	err = withRetry(ctx, queryLabel(query), func() error {
		res, err = db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func retryableQueryRowScan(ctx context.Context, db *sql.DB, query string, args []interface{}, dest ...interface{}) error {
	return withRetry(ctx, queryLabel(query), func() error {
		return db.QueryRowContext(ctx, query, args...).Scan(dest...)
	})
}

func retryableQuery(ctx context.Context, db *sql.DB, query string, args ...interface{}) (rows *sql.Rows, err error) {
	err = withRetry(ctx, queryLabel(query), func() error {
		rows, err = db.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// retryableTransactionExec reruns the whole transaction on lock conflicts
func retryableTransactionExec(ctx context.Context, db *sql.DB, txFunc func(*sql.Tx) error) error {
	return withRetry(ctx, "transaction", func() error {
		return runTransaction(ctx, db, txFunc)
	})
}

func runTransaction(ctx context.Context, db *sql.DB, txFunc func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := txFunc(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			log.Printf("[DATABASE]: rollback failed: %v", rerr)
		}
		return err
	}
	return tx.Commit()
}

// queryLabel shortens a statement for log lines
func queryLabel(query string) string {
	if len(query) <= 50 {
		return query
	}
	return query[:50] + "..."
}
