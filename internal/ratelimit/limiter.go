// Package ratelimit implements fixed-window request admission keyed by an arbitrary client
// identifier.
//
// A window opens on the first request for an identifier and lasts for the configured
// duration; at most limit requests are admitted inside it. Windows are not sliding: a client
// can be admitted up to 2×limit times across a window boundary.
package ratelimit

import (
	"context"
	"math"
	"time"

	apperrors "github.com/flowtrade/portal/internal/errors"
)

// Decision is the result of one admission attempt.
type Decision struct {
	Admitted  bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns how long a rejected client should wait, rounded up to whole seconds
// and never below one second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	secs := int64(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Limiter admits or rejects a request for identifier at instant now.
type Limiter interface {
	Admit(ctx context.Context, identifier string, window time.Duration, limit int, now time.Time) (Decision, error)
}

func validateArgs(window time.Duration, limit int) error {
	if window <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "rate limit window must be positive")
	}
	if limit <= 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "rate limit must be positive")
	}
	return nil
}
