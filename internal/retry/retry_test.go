package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestWithBackoffSucceedsAfterRetry(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		if calls < 3 {
			return true, errors.New("transient")
		}
		return false, nil
	})

	if err != nil {
		t.Fatalf("WithBackoff() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithBackoffStopsOnNonRetryable(t *testing.T) {
	calls := 0
	wantErr := errors.New("bad credentials")
	err := WithBackoff(context.Background(), fastConfig(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return false, wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Errorf("WithBackoff() error = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithBackoffExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(), func(ctx context.Context, attempt int) (bool, error) {
		calls++
		return true, errors.New("still failing")
	})

	if err == nil {
		t.Fatal("WithBackoff() expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithBackoffHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithBackoff(ctx, fastConfig(), func(ctx context.Context, attempt int) (bool, error) {
		return true, errors.New("transient")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("WithBackoff() error = %v, want context.Canceled", err)
	}
}
