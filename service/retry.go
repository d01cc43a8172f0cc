package service

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = time.Second
)

// withRetry runs op up to maxAttempts times, sleeping baseDelay * 2^(n-1)
// after the n-th failure (1s then 2s with the defaults; no sleep follows
// the final attempt). The last error is returned, wrapped, after attempts
// are exhausted. Context cancellation aborts the wait between attempts.
func withRetry[T any](ctx context.Context, label string, maxAttempts int, baseDelay time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := baseDelay << (attempt - 1)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("network: %s canceled: %w", label, ctx.Err())
		case <-time.After(delay):
		}
	}

	return zero, fmt.Errorf("network: %s failed after %d attempts: %w", label, maxAttempts, lastErr)
}
