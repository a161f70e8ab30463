package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// Options configures a retry loop.
type Options struct {
	// MaxRetries is the number of re-attempts after the first try.
	// A value of 0 means the operation runs exactly once.
	MaxRetries int

	// BaseDelay is the delay before the first retry (default: 500ms).
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff (default: 30s).
	MaxDelay time.Duration

	// Jitter is the fraction of the computed delay randomized away
	// (0.0 to 1.0, default 0.2). A delay d becomes d ± d×Jitter/2.
	Jitter float64
}

// retryableError is implemented by errors that know whether a retry can help.
// providers.Error implements it; plain errors are treated as retryable.
type retryableError interface {
	Retryable() bool
}

func (o *Options) withDefaults() Options {
	opts := *o
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Jitter <= 0 || opts.Jitter > 1 {
		opts.Jitter = 0.2
	}
	return opts
}

// Do invokes op up to opts.MaxRetries+1 times, sleeping with exponential
// backoff between attempts. The context is consulted before every attempt
// and during every backoff sleep; cancellation wins over any pending delay
// and the context error is returned immediately.
//
// The last attempt's error is returned unchanged so callers keep full
// classification information.
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	opts = opts.withDefaults()

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := Backoff(attempt-1, opts.BaseDelay, opts.MaxDelay, opts.Jitter)
			slog.Debug("retrying operation",
				"attempt", attempt,
				"max_retries", opts.MaxRetries,
				"backoff", delay,
			)

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		// Cancellation observed between attempts must suppress dispatch.
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return zero, err
		}
	}

	return zero, lastErr
}

// isRetryable reports whether another attempt may succeed.
// Context errors never are; errors exposing Retryable() decide for
// themselves; everything else is assumed transient.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var re retryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}

	return true
}

// Backoff computes the delay before retry number attempt (0-based):
// base × 2^attempt, capped at max, with uniform jitter.
func Backoff(attempt int, base, max time.Duration, jitter float64) time.Duration {
	delay := base << uint(attempt)
	if delay <= 0 || delay > max {
		delay = max
	}

	if jitter > 0 {
		span := float64(delay) * jitter
		delay = time.Duration(float64(delay) - span/2 + rand.Float64()*span)
	}

	return delay
}
