// Package retry provides bounded exponential backoff for transient failures
// when talking to the external metrics API.
package retry

import (
	"context"
	"time"
)

// Config controls backoff behavior
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig returns the default backoff schedule: 1s, 2s, 4s, capped at 30s.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Func is an operation that can be retried. Returning retryable=false stops
// further attempts regardless of the error.
type Func func(ctx context.Context, attempt int) (retryable bool, err error)

// WithBackoff runs fn until it succeeds, exhausts attempts, returns a
// non-retryable error, or the context is cancelled. The last error is returned.
func WithBackoff(ctx context.Context, cfg *Config, fn Func) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		retryable, err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryable || attempt == cfg.MaxAttempts {
			return lastErr
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}
