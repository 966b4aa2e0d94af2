// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry runs an operation under a fixed-delay retry policy. The
// policy is independent of any transport: callers decide which errors are
// worth another attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultDelay is the wait between attempts when a Policy leaves Delay
// unset. Tests override this to avoid real sleeps.
var DefaultDelay = 5 * time.Second

const defaultMaxAttempts = 3

// Policy describes how many times to try an operation and which failures
// qualify for another attempt.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Zero uses the default (3).
	MaxAttempts int

	// Delay is the fixed wait between attempts. Zero uses DefaultDelay.
	Delay time.Duration

	// IsTransient reports whether err should be retried. A nil function
	// retries every error.
	IsTransient func(err error) bool

	// OnRetry, when set, is called before each wait with the attempt that
	// just failed (1-based) and its error.
	OnRetry func(attempt int, err error)
}

// ExhaustedError is returned when every attempt failed with a transient
// error. It wraps the last error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts run out. A non-transient error is returned as-is. If the context
// is cancelled during a wait, Do returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
		}
		if p.IsTransient != nil && !p.IsTransient(err) {
			return zero, err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}
