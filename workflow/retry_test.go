package workflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	b := Backoff{MinDelay: time.Second, MaxDelay: 10 * time.Second, Factor: 2}

	tests := []struct {
		attempt int
		base    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{100, 10 * time.Second},
	}
	for _, tt := range tests {
		got := b.Delay(tt.attempt)
		if got < tt.base || got > tt.base+tt.base/10 {
			t.Errorf("Delay(%d) = %v, want within [%v, %v]", tt.attempt, got, tt.base, tt.base+tt.base/10)
		}
	}
}

func TestRetry(t *testing.T) {
	b := Backoff{MinDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 1}

	calls := 0
	err := Retry(context.Background(), "R1", "lock", 3, b, func() error {
		calls++
		if calls < 3 {
			return errors.New("busy")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("Retry() = %v after %d calls, want nil after 3", err, calls)
	}

	base := errors.New("busy")
	calls = 0
	err = Retry(context.Background(), "R1", "lock", 2, b, func() error {
		calls++
		return base
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, base) {
		t.Errorf("Retry() error = %v, want wrapping %v", err, base)
	}
	if got, want := err.Error(), "R1: lock failed: busy (retries: 2)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := Backoff{MinDelay: time.Hour, MaxDelay: time.Hour, Factor: 1}

	calls := 0
	err := Retry(ctx, "R1", "connect", 5, b, func() error {
		calls++
		cancel()
		return errors.New("refused")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
}

func TestOperationErrorWithoutRetries(t *testing.T) {
	err := &OperationError{Host: "R1", Operation: "get", Err: errors.New("no such file")}
	if got, want := err.Error(), "R1: get failed: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
