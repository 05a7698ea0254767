package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retryable marks err as transient. Errors not marked end Retry at once.
func Retryable(err error) error {
	return retry.RetryableError(err)
}

// Retry calls fn up to attempts times with a constant delay between calls,
// as long as fn keeps returning errors wrapped by Retryable.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(delay))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			slog.Info("Retrying request...", "attempt", attempt)
		}
		return fn(ctx)
	})
	if err != nil && attempt > 1 {
		return fmt.Errorf("after %d attempts, last error: %w", attempt, err)
	}
	return err
}
