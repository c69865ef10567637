package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds the exponential backoff applied to transient failures.
type RetryConfig struct {
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig matches the "per-operation timeout" discipline in
// spec.md §5: a handful of quick retries, bounded well under typical HTTP
// request timeouts.
var DefaultRetryConfig = RetryConfig{
	MaxElapsedTime:  2 * time.Second,
	InitialInterval: 50 * time.Millisecond,
	MaxInterval:     500 * time.Millisecond,
}

// Retry runs fn with exponential backoff until it succeeds, ctx is done, or
// cfg.MaxElapsedTime elapses. isRetryable decides whether a given error
// should be retried at all (e.g. BadInput never is).
func Retry(ctx context.Context, cfg RetryConfig, isRetryable func(error) bool, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	b.MaxElapsedTime = cfg.MaxElapsedTime

	bctx := backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, bctx)
}
