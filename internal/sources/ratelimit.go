package sources

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter enforces minimum inter-request spacing for one external
// source. Limiters are independent per source; there is no global cap.
// It wraps a token bucket and is safe for concurrent use, so parallel
// workers sharing a client still serialize dispatch to the source.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing ratePerSecond sustained
// requests. A burst below 1 is raised to 1; with burst 1 consecutive
// acquisitions are spaced at least 1/rate seconds apart, which is what the
// politeness policies of the scholarly APIs ask for.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or the context is canceled.
// It never fails on its own; the only error is the context's.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed immediately, consuming a
// token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// SetRate adjusts the sustained rate, e.g. after a source advertises a
// different limit in its response headers.
func (r *RateLimiter) SetRate(ratePerSecond float64) {
	r.limiter.SetLimit(rate.Limit(ratePerSecond))
}

// Tokens returns the number of tokens currently available.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
