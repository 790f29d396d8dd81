// Package retry is the one bounded retry-with-backoff primitive in the
// client. Anything that used to poll on an ad hoc timer goes through Do.
package retry

import (
	"context"
	"time"
)

// Do runs fn up to attempts times, doubling the delay between failures.
// It returns nil on the first success, the last error once attempts are
// exhausted, or the context error if ctx ends while waiting.
func Do(ctx context.Context, attempts int, delay time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
