package keeper

import (
	"context"
	"time"
)

const maxBackoff = 30 * time.Second

// retry calls fn until it succeeds, ctx is done or attempts retries were
// spent. The delay doubles after each failure up to maxBackoff. Only reads go
// through retry.
func retry[T any](ctx context.Context, attempts int, backoff time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if attempts < 0 {
		attempts = 0
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	for n := 0; ; n++ {
		v, err := fn(ctx)
		if err == nil || n == attempts {
			return v, err
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(2*backoff, maxBackoff)
	}
}
