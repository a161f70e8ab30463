// Package retry implements bounded retry with exponential backoff for
// fallible operations.
//
// The executor wraps any operation returning (T, error) and re-invokes it
// until it succeeds, the retry budget is exhausted, the context is cancelled,
// or the operation returns a non-retryable error.
//
// # Backoff
//
// Delays follow base × 2^attempt, capped at a configured maximum, with
// uniform jitter applied to avoid synchronized retries across callers.
// No delay is applied before the first attempt.
//
// # Usage
//
//	resp, err := retry.Do(ctx, retry.Options{MaxRetries: 3}, func(ctx context.Context) (*http.Response, error) {
//	    return client.Do(req.WithContext(ctx))
//	})
//
// Operations that fail with an error implementing Retryable() bool report
// whether another attempt is worthwhile; anything else is treated as
// transient and retried.
package retry
