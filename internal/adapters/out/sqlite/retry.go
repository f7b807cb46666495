package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

// RetryPolicy bounds execWithRetry.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// DefaultRetryPolicy is used by background maintenance writes.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 5, Delay: 200 * time.Millisecond}

// execWithRetry performs an execution with retry logic for a locked
// database. Only background jobs use it; request paths fail fast.
func execWithRetry(ctx context.Context, db sqlx.ExecerContext, policy RetryPolicy, logger *log.Logger, query string, args ...interface{}) (sql.Result, error) {
	var result sql.Result
	var err error
	retryDelay := policy.Delay

	for attempt := 1; attempt <= policy.MaxRetries; attempt++ {
		result, err = db.ExecContext(ctx, query, args...)
		if err == nil {
			return result, nil
		}

		if !isBusy(err) {
			return nil, classify(err)
		}

		logger.Debug("Database locked, retrying operation",
			"attempt", attempt,
			"max_retries", policy.MaxRetries,
			"query", query)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
		// Increase delay for next retry (exponential backoff)
		retryDelay *= 2
	}

	return nil, fmt.Errorf("max retries exceeded: %w", classify(err))
}
