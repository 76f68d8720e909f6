// Package retry provides the opt-in bounded retry utility of the data-access
// layer. Background reads do not retry by default; operations that ask for it
// get a linear backoff (delay x attempt) up to a fixed attempt count.
package retry

import (
	"context"
	"time"

	"github.com/foodsave/storefront-client/internal/apierr"
)

// Config bounds the retry loop.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number between tries.
	BaseDelay time.Duration
}

// DefaultConfig matches the deployed client: three attempts, one second base.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, BaseDelay: time.Second}
}

// Do runs fn until it succeeds, fails with a non-retriable error, or the
// attempt budget is spent. Only transport failures, 429, and 5xx responses
// are retried; auth and validation failures surface immediately.
func Do(ctx context.Context, cfg Config, fn func(context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.BaseDelay * time.Duration(attempt-1)):
			}
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !apierr.Retriable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
