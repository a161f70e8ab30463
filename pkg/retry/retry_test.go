package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// notRetryable is a test error that reports itself as permanent.
type notRetryable struct{ msg string }

func (e *notRetryable) Error() string   { return e.msg }
func (e *notRetryable) Retryable() bool { return false }

func fastOptions(maxRetries int) Options {
	return Options{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	}
}

// TestDo_ZeroRetriesInvokesOnce verifies MaxRetries=0 runs the operation
// exactly once regardless of outcome.
func TestDo_ZeroRetriesInvokesOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastOptions(0), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("boom")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 invocation, got %d", calls)
	}
}

// TestDo_SucceedsAfterFailures verifies an operation failing 3 times then
// succeeding is invoked exactly 4 times and returns the success value.
func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastOptions(3), func(ctx context.Context) (string, error) {
		calls++
		if calls <= 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected %q, got %q", "ok", result)
	}
	if calls != 4 {
		t.Errorf("expected 4 invocations, got %d", calls)
	}
}

// TestDo_ExhaustedReturnsLastError verifies the final error is propagated
// unchanged after the budget runs out.
func TestDo_ExhaustedReturnsLastError(t *testing.T) {
	sentinel := errors.New("always failing")
	calls := 0
	_, err := Do(context.Background(), fastOptions(2), func(ctx context.Context) (int, error) {
		calls++
		return 0, sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Errorf("expected last error to propagate, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 invocations, got %d", calls)
	}
}

// TestDo_CancelledBeforeDispatch verifies no invocation happens when the
// context is already cancelled.
func TestDo_CancelledBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, fastOptions(3), func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("should not run")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected zero invocations, got %d", calls)
	}
}

// TestDo_CancelDuringBackoff verifies cancellation overrides a pending
// retry delay.
func TestDo_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := Options{
		MaxRetries: 3,
		BaseDelay:  time.Hour, // would hang without cancellation
		MaxDelay:   time.Hour,
	}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, opts, func(ctx context.Context) (string, error) {
			calls++
			return "", errors.New("transient")
		})
		done <- err
	}()

	// Give the first attempt time to fail and enter the backoff sleep.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not observe cancellation")
	}

	if calls != 1 {
		t.Errorf("expected 1 invocation before cancellation, got %d", calls)
	}
}

// TestDo_NonRetryableStops verifies a non-retryable error aborts the loop
// without consuming the budget.
func TestDo_NonRetryableStops(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastOptions(5), func(ctx context.Context) (string, error) {
		calls++
		return "", &notRetryable{msg: "bad request"}
	})

	var nr *notRetryable
	if !errors.As(err, &nr) {
		t.Fatalf("expected notRetryable error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 invocation, got %d", calls)
	}
}

// TestBackoff_GrowthAndCap verifies the exponential schedule and cap.
func TestBackoff_GrowthAndCap(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Second

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second}, // capped
		{10, time.Second},
	}

	for _, tt := range tests {
		got := Backoff(tt.attempt, base, max, 0)
		if got != tt.want {
			t.Errorf("Backoff(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

// TestBackoff_JitterBounds verifies jittered delays stay within ±jitter/2.
func TestBackoff_JitterBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := Backoff(0, base, time.Second, 0.2)
		lo := 90 * time.Millisecond
		hi := 110 * time.Millisecond
		if got < lo || got > hi {
			t.Fatalf("jittered delay %v outside [%v, %v]", got, lo, hi)
		}
	}
}
