package pipeline

import (
	"context"

	"github.com/kbukum/slotpipe/resilience"
)

// Retrying wraps fn so that retryable failures are attempted again with
// backoff before the item fails the run. The backoff sleep aborts early when
// the run is being torn down after another worker failed.
func Retrying[I, O any](fn Transform[I, O], cfg resilience.RetryConfig) Transform[I, O] {
	if !cfg.Enabled() {
		return fn
	}
	return func(ctx context.Context, item I) (O, error) {
		return resilience.Retry(ctx, cfg, func() (O, error) {
			return fn(ctx, item)
		})
	}
}

// Throttled paces src so that at most rl's rate of items is read per
// second. Sources have no context, so the wait is unbounded.
func Throttled[T any](src Source[T], rl *resilience.RateLimiter) Source[T] {
	return SourceFunc[T](func() (T, bool) {
		_ = rl.Wait(context.Background())
		return src.Next()
	})
}
