// Package dbretry retries database work that failed for transient reasons
// such as dropped connections, serialization conflicts or a busy SQLite file.
package dbretry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	maxElapsedTime  = 30 * time.Second
	initialInterval = 200 * time.Millisecond
	maxInterval     = 5 * time.Second
	maxRetries      = 5
)

// transientSQLStates are Postgres error classes worth another attempt.
var transientSQLStates = map[string]struct{}{
	"08000": {}, "08001": {}, "08003": {}, "08004": {}, "08006": {}, "08007": {},
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"53300": {}, // too_many_connections
	"55P03": {}, // lock_not_available
	"57P01": {}, "57P03": {},
}

// transientMessages catch network failures that reach us only as text.
var transientMessages = []string{
	"connection reset by peer",
	"broken pipe",
	"connection refused",
	"i/o timeout",
}

// IsRetryableError reports whether err is transient.
func IsRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		_, ok := transientSQLStates[pgErr.Field('C')]
		return ok
	}

	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		primary := liteErr.Code() & 0xff
		return primary == sqlite3lib.SQLITE_BUSY || primary == sqlite3lib.SQLITE_LOCKED
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := err.Error()
	for _, fragment := range transientMessages {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

func newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
		backoff.WithMaxElapsedTime(maxElapsedTime),
	)
	return backoff.WithContext(backoff.WithMaxRetries(exp, maxRetries), ctx)
}

// Operation runs fn until it succeeds, fails permanently or the retry
// budget runs out, and returns its result.
func Operation[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	attempts := 0
	result, err := backoff.RetryWithData(func() (T, error) {
		attempts++
		value, err := fn(ctx)
		if err != nil && !IsRetryableError(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}, newBackOff(ctx))

	if err != nil && attempts > 1 && IsRetryableError(err) {
		return result, fmt.Errorf("database operation failed after %d attempts: %w", attempts, err)
	}
	return result, err
}

// NoResult is Operation for work that only reports an error. Permanent
// errors come back unwrapped so callers can match on them.
func NoResult(ctx context.Context, fn func(context.Context) error) error {
	_, err := Operation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Transaction runs fn inside a transaction, restarting the whole
// transaction on transient failures.
func Transaction(ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) error) error {
	return NoResult(ctx, func(ctx context.Context) error {
		return db.RunInTx(ctx, nil, fn)
	})
}
