package utils

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryOptions configures WithRetry.
type RetryOptions struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      uint64

	// OnRetry, when set, is called after each failed attempt that will be retried.
	OnRetry func(err error, wait time.Duration)
}

// GetWebhookRetryOptions returns retry options for outgoing webhook deliveries.
func GetWebhookRetryOptions() RetryOptions {
	return RetryOptions{
		MaxElapsedTime:  30 * time.Second,
		InitialInterval: time.Second,
		MaxInterval:     10 * time.Second,
		MaxRetries:      3,
	}
}

// WithRetry runs operation with exponential backoff until it succeeds, the
// options are exhausted or ctx ends. Errors wrapped with Permanent stop at once.
func WithRetry(ctx context.Context, operation func() error, opts RetryOptions) error {
	policy := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(opts.InitialInterval),
		backoff.WithMaxInterval(opts.MaxInterval),
		backoff.WithMaxElapsedTime(opts.MaxElapsedTime),
	)
	b := backoff.WithContext(backoff.WithMaxRetries(policy, opts.MaxRetries), ctx)

	if opts.OnRetry == nil {
		return backoff.Retry(operation, b)
	}
	return backoff.RetryNotify(operation, b, opts.OnRetry)
}

// Permanent marks an error as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
