package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/flowtrade/portal/internal/errors"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestMemoryLimiter_Admit(t *testing.T) {
	ctx := context.Background()

	t.Run("sixth request in window is rejected", func(t *testing.T) {
		limiter := NewMemoryLimiter(nil)

		for i := 1; i <= 5; i++ {
			decision, err := limiter.Admit(ctx, "203.0.113.7", time.Second, 5, t0)
			require.NoError(t, err)
			assert.True(t, decision.Admitted, "request %d", i)
			assert.Equal(t, 5-i, decision.Remaining)
			assert.Equal(t, t0.Add(time.Second), decision.ResetAt)
			assert.Equal(t, 5, decision.Limit)
		}

		decision, err := limiter.Admit(ctx, "203.0.113.7", time.Second, 5, t0)
		require.NoError(t, err)
		assert.False(t, decision.Admitted)
		assert.Equal(t, 0, decision.Remaining)
		assert.Equal(t, t0.Add(time.Second), decision.ResetAt)
	})

	t.Run("admitted again after reset", func(t *testing.T) {
		limiter := NewMemoryLimiter(nil)

		for i := 0; i < 6; i++ {
			_, err := limiter.Admit(ctx, "client", time.Second, 5, t0)
			require.NoError(t, err)
		}

		resetAt := t0.Add(time.Second)
		decision, err := limiter.Admit(ctx, "client", time.Second, 5, resetAt)
		require.NoError(t, err)
		assert.True(t, decision.Admitted)
		assert.Equal(t, 4, decision.Remaining)
		assert.Equal(t, resetAt.Add(time.Second), decision.ResetAt)
	})

	t.Run("rejections do not extend the window", func(t *testing.T) {
		limiter := NewMemoryLimiter(nil)

		_, err := limiter.Admit(ctx, "client", time.Minute, 1, t0)
		require.NoError(t, err)
		rejected, err := limiter.Admit(ctx, "client", time.Minute, 1, t0.Add(30*time.Second))
		require.NoError(t, err)

		assert.False(t, rejected.Admitted)
		assert.Equal(t, t0.Add(time.Minute), rejected.ResetAt)
	})

	t.Run("boundary burst reaches twice the limit", func(t *testing.T) {
		limiter := NewMemoryLimiter(nil)
		beforeReset := t0.Add(999 * time.Millisecond)
		atReset := t0.Add(time.Second)

		_, err := limiter.Admit(ctx, "client", time.Second, 5, t0)
		require.NoError(t, err)
		admitted := 1
		for i := 0; i < 4; i++ {
			d, err := limiter.Admit(ctx, "client", time.Second, 5, beforeReset)
			require.NoError(t, err)
			if d.Admitted {
				admitted++
			}
		}
		for i := 0; i < 5; i++ {
			d, err := limiter.Admit(ctx, "client", time.Second, 5, atReset)
			require.NoError(t, err)
			if d.Admitted {
				admitted++
			}
		}

		assert.Equal(t, 10, admitted)
	})

	t.Run("identifiers are independent", func(t *testing.T) {
		limiter := NewMemoryLimiter(nil)

		_, err := limiter.Admit(ctx, "a", time.Minute, 1, t0)
		require.NoError(t, err)
		decision, err := limiter.Admit(ctx, "b", time.Minute, 1, t0)
		require.NoError(t, err)

		assert.True(t, decision.Admitted)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		limiter := NewMemoryLimiter(nil)

		_, err := limiter.Admit(ctx, "client", 0, 5, t0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = limiter.Admit(ctx, "client", time.Second, 0, t0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestMemoryLimiter_ConcurrentAdmit(t *testing.T) {
	limiter := NewMemoryLimiter(nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := limiter.Admit(context.Background(), "client", time.Minute, 10, t0)
			if err == nil && d.Admitted {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, admitted)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	limiter := NewMemoryLimiter(nil)
	ctx := context.Background()

	_, err := limiter.Admit(ctx, "old", time.Second, 5, t0)
	require.NoError(t, err)
	_, err = limiter.Admit(ctx, "fresh", time.Minute, 5, t0)
	require.NoError(t, err)
	require.Equal(t, 2, limiter.Len())

	assert.Equal(t, 0, limiter.Sweep(t0.Add(500*time.Millisecond)))
	assert.Equal(t, 1, limiter.Sweep(t0.Add(time.Second)))
	assert.Equal(t, 1, limiter.Len())

	decision, err := limiter.Admit(ctx, "fresh", time.Minute, 5, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, decision.Remaining, "sweep keeps live windows")
}

func TestMemoryLimiter_SweepBoundsGrowth(t *testing.T) {
	limiter := NewMemoryLimiter(nil)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		_, err := limiter.Admit(ctx, time.Duration(i).String(), time.Second, 5, t0)
		require.NoError(t, err)
	}
	limiter.Sweep(t0.Add(time.Second))

	assert.Equal(t, 0, limiter.Len())
}

func TestMemoryLimiter_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewMemoryLimiter(nil)
	_, err := limiter.Admit(context.Background(), "client", time.Millisecond, 5, time.Now().Add(-time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- limiter.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return limiter.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestDecision_RetryAfter(t *testing.T) {
	tests := []struct {
		name     string
		resetIn  time.Duration
		expected time.Duration
	}{
		{name: "whole seconds", resetIn: 30 * time.Second, expected: 30 * time.Second},
		{name: "rounds up", resetIn: 1500 * time.Millisecond, expected: 2 * time.Second},
		{name: "already reset", resetIn: -time.Second, expected: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decision{ResetAt: t0.Add(tt.resetIn)}
			assert.Equal(t, tt.expected, d.RetryAfter(t0))
		})
	}
}
