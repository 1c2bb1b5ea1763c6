package scraper

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig bounds how often a failed remote call is repeated. The zero
// value performs a single attempt.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (rc RetryConfig) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if rc.InitialInterval > 0 {
		eb.InitialInterval = rc.InitialInterval
	}
	if rc.MaxInterval > 0 {
		eb.MaxInterval = rc.MaxInterval
	}
	eb.MaxElapsedTime = 0

	retries := rc.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)
}

// Do runs op until it succeeds, returns a permanent error, or the retry
// budget is spent. notify may be nil.
func (rc RetryConfig) Do(ctx context.Context, op backoff.Operation, notify backoff.Notify) error {
	return backoff.RetryNotify(op, rc.backOff(ctx), notify)
}
