package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return nil
	}, 3, 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
}

func TestRetryWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoff_AllAttemptsFail(t *testing.T) {
	attempts := 0
	expectedErr := errors.New("persistent error")
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return expectedErr
	}, 3, time.Millisecond)

	assert.Equal(t, expectedErr, err, "should return the last error")
	assert.Equal(t, 3, attempts, "should attempt exactly maxAttempts times")
}

func TestRetryWithBackoff_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := RetryWithBackoff(ctx, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New("error")
	}, 10, 10*time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, attempts, "should stop when context is canceled")
}

func TestRetryWithBackoff_ExponentialBackoff(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	lastTime := time.Now()

	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts > 1 {
			delays = append(delays, time.Since(lastTime))
		}
		lastTime = time.Now()
		if attempts < 4 {
			return errors.New("error")
		}
		return nil
	}, 5, 10*time.Millisecond)

	require.NoError(t, err)
	require.Len(t, delays, 3)
	assert.GreaterOrEqual(t, delays[0], 10*time.Millisecond)
	assert.GreaterOrEqual(t, delays[1], 20*time.Millisecond)
	assert.GreaterOrEqual(t, delays[2], 40*time.Millisecond)
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return nil
	}, 0, time.Millisecond)

	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	assert.Zero(t, attempts)
}
