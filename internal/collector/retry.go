package collector

import (
	"context"
	"fmt"
	"time"
)

// RetryConfig bounds the exponential backoff applied to provider calls.
type RetryConfig struct {
	Retries   int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryConfig returns 2 retries with 1s base delay capped at 8s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{Retries: 2, BaseDelay: time.Second, MaxDelay: 8 * time.Second}
}

// WithRetry runs fn until it succeeds, the retries are exhausted or ctx ends.
// Only the last error is returned.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := cfg.BaseDelay << (attempt - 1)
			if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-time.After(delay):
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("after %d attempts: %w", cfg.Retries+1, lastErr)
}

// runWithContext runs a blocking call that takes no context and abandons it
// once ctx is done. The goroutine finishes in the background.
func runWithContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.v, r.err
	}
}
