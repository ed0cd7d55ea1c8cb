package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastExecutor(maxAttempts int) *Executor {
	return NewExecutor(Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	})
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastExecutor(3), "op", func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestDoRetriesTransientFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastExecutor(3), "op", func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection reset by peer")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 invocations, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastExecutor(3), "op", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("timeout waiting for upstream")
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Fatalf("expected 3 invocations, got %d", calls)
	}
	var rerr *Error
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *retry.Error, got %T", err)
	}
	if rerr.Permanent || rerr.Attempts != 3 {
		t.Errorf("unexpected error metadata: permanent=%v attempts=%d", rerr.Permanent, rerr.Attempts)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastExecutor(3), "op", func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("status=401 unauthorized")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("non-retryable failure should not be reattempted, got %d calls", calls)
	}
	var rerr *Error
	if !errors.As(err, &rerr) || !rerr.Permanent {
		t.Fatalf("expected permanent *retry.Error, got %v", err)
	}
}

type classifiedErr struct{ retryable bool }

func (e *classifiedErr) Error() string   { return "classified failure" }
func (e *classifiedErr) Retryable() bool { return e.retryable }

func TestSelfClassifyingErrorsWin(t *testing.T) {
	// The message says "timeout" (retryable marker) but the error
	// classifies itself as permanent; self-classification must win.
	calls := 0
	_, err := Do(context.Background(), fastExecutor(3), "op", func(ctx context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("timeout: %w", &classifiedErr{retryable: false})
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected single permanent failure, err=%v calls=%d", err, calls)
	}
}

func TestRetryableClassification(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("read tcp: connection refused"), true},
		{errors.New("status=503 service unavailable"), true},
		{errors.New("too many requests"), true},
		{errors.New("invalid api key"), false},
		{errors.New("status=400 malformed payload"), false},
		// Permanent markers are checked first.
		{errors.New("bad request while connecting: timeout"), false},
		// Unknown errors default to retryable.
		{errors.New("something odd happened"), true},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestDoRespectsContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := NewExecutor(Policy{
		MaxAttempts:  3,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
		Multiplier:   2.0,
	})

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, e, "op", func(ctx context.Context) (string, error) {
			calls++
			return "", errors.New("timeout")
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context cancellation, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call before cancellation, got %d", calls)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
}
