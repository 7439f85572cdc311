package openai

import (
	"context"

	"golang.org/x/time/rate"
)

// newLimiter returns a token bucket allowing rps requests per second with
// a burst of one, or nil when pacing is disabled.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// wait blocks until the limiter admits a request. A nil limiter never blocks.
func wait(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}
