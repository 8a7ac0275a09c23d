package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noSleep records requested delays without waiting.
func noSleep(delays *[]time.Duration) SleepFunc {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := Retry(context.Background(), DefaultRetryPolicy, noSleep(&delays), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	calls := 0

	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2}
	err := Retry(context.Background(), policy, noSleep(&delays), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRetry_Exhausted(t *testing.T) {
	var delays []time.Duration
	calls := 0
	cause := errors.New("backend down")

	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2}
	err := Retry(context.Background(), policy, noSleep(&delays), func(context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 5, calls)
	// Exponential schedule: 1s, 2s, 4s, 8s
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	}, delays)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryPolicy, nil, func(context.Context) error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryPolicy_Delays(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond,
	}, policy.Delays())

	assert.Nil(t, RetryPolicy{MaxAttempts: 1}.Delays())
}
