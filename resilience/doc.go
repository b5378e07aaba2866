// Package resilience provides retry and rate limiting for pipeline stages.
//
// Retry re-runs an operation with exponential backoff while its error is
// retryable. By default an error is retryable when it is an *errors.AppError
// marked Retryable, or a plain error that is not a context error.
//
// RateLimiter is a token bucket backed by golang.org/x/time/rate. It caps how
// fast a source is read so a pipeline can be paced against a downstream
// quota.
package resilience
