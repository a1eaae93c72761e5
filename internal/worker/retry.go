package worker

import (
	"context"
	"time"
)

// retryBaseDelay is the first backoff step; tests shrink it.
var retryBaseDelay = time.Second

// withRetry calls fn up to maxAttempts times with exponential backoff
// (immediate, base, 2×base, …). Returns nil on the first success and the last
// error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := retryBaseDelay << uint(i-1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
