package resilience

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/slotpipe/errors"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, BackoffFactor: 2}
}

func TestRetry(t *testing.T) {
	transient := stderrors.New("transient")
	tests := []struct {
		name      string
		failures  int
		attempts  int
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", 0, 3, false, 1},
		{"succeeds after retry", 2, 3, false, 3},
		{"exhausted", 5, 3, true, 3},
		{"single attempt", 1, 1, true, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			got, err := Retry(context.Background(), fastRetry(tc.attempts), func() (string, error) {
				calls++
				if calls <= tc.failures {
					return "", transient
				}
				return "ok", nil
			})
			if (err != nil) != tc.wantErr {
				t.Fatalf("Retry() error = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && !stderrors.Is(err, transient) {
				t.Errorf("expected last error returned unchanged, got %v", err)
			}
			if err == nil && got != "ok" {
				t.Errorf("expected ok, got %q", got)
			}
			if calls != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, calls)
			}
		})
	}
}

func TestRetry_AppErrorRetryability(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"retryable sink error", errors.SinkFailed("out", nil), 3},
		{"non-retryable transform error", errors.TransformFailed(0, stderrors.New("bad")), 1},
		{"wrapped retryable", fmt.Errorf("write: %w", errors.Timeout("flush")), 3},
		{"context canceled", context.Canceled, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := RetryFunc(context.Background(), fastRetry(3), func() error {
				calls++
				return tc.err
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if calls != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, calls)
			}
		})
	}
}

func TestRetry_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 10, InitialBackoff: time.Hour}
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- RetryFunc(ctx, cfg, func() error {
			calls++
			return stderrors.New("down")
		})
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil || err.Error() != "down" {
			t.Errorf("expected the last operation error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Retry did not observe cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_OnRetry(t *testing.T) {
	cfg := fastRetry(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, _ error, backoff time.Duration) {
		if backoff <= 0 {
			t.Errorf("expected positive backoff, got %s", backoff)
		}
		attempts = append(attempts, attempt)
	}
	_ = RetryFunc(context.Background(), cfg, func() error { return stderrors.New("x") })
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected retries after attempts 1 and 2, got %v", attempts)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, BackoffFactor: 2}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 50 * time.Millisecond},
	}
	for _, tc := range tests {
		if got := calculateBackoff(tc.attempt, cfg); got != tc.want {
			t.Errorf("attempt %d: expected %s, got %s", tc.attempt, tc.want, got)
		}
	}

	cfg.Jitter = 0.5
	for i := 0; i < 50; i++ {
		got := calculateBackoff(1, cfg)
		if got < 5*time.Millisecond || got > 15*time.Millisecond {
			t.Fatalf("jittered backoff %s out of range", got)
		}
	}
}

func TestRetryConfigEnabled(t *testing.T) {
	if (RetryConfig{}).Enabled() || (RetryConfig{MaxAttempts: 1}).Enabled() {
		t.Error("expected one attempt or fewer to mean retries are off")
	}
	if !DefaultRetryConfig().Enabled() {
		t.Error("expected defaults to retry")
	}
}
