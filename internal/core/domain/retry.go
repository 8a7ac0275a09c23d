package domain

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy describes bounded retry with exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failure.
	BaseDelay time.Duration

	// Multiplier scales the delay after each failed attempt.
	Multiplier float64
}

// DefaultRetryPolicy is the policy used for embedding batch calls.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 5,
	BaseDelay:   time.Second,
	Multiplier:  2,
}

// Delays returns the backoff schedule between attempts.
func (p RetryPolicy) Delays() []time.Duration {
	if p.MaxAttempts < 2 {
		return nil
	}
	delays := make([]time.Duration, p.MaxAttempts-1)
	d := p.BaseDelay
	for i := range delays {
		delays[i] = d
		d = time.Duration(float64(d) * p.Multiplier)
	}
	return delays
}

// SleepFunc waits for a duration or until the context is cancelled.
// Injectable so retry behaviour is testable without real clocks.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs fn under the policy, sleeping between failed attempts.
// A nil sleep uses ContextSleep. The last error is wrapped in
// ErrRetryExhausted once attempts run out.
func Retry(ctx context.Context, policy RetryPolicy, sleep SleepFunc, fn func(ctx context.Context) error) error {
	if sleep == nil {
		sleep = ContextSleep
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := policy.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * policy.Multiplier)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempts, lastErr)
}
