package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting.
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request or the
	// context is cancelled. It only delays, it never rejects.
	Wait(ctx context.Context) error
	// Reset resets the rate limiter state
	Reset()
}

// RequestLimiter enforces a sliding-window request cap combined with a
// minimum delay between consecutive requests. Two limiter instances never
// share state; create one per outbound strategy or per host.
type RequestLimiter struct {
	maxRequests  int
	window       time.Duration
	requestDelay time.Duration

	requests    []time.Time
	lastRequest time.Time
	mu          sync.Mutex
}

// NewRequestLimiter creates a limiter allowing maxRequests per window with
// at least requestDelay between consecutive requests.
func NewRequestLimiter(maxRequests int, window, requestDelay time.Duration) *RequestLimiter {
	return &RequestLimiter{
		maxRequests:  maxRequests,
		window:       window,
		requestDelay: requestDelay,
		requests:     make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed and records it if so.
func (rl *RequestLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.cleanOldRequests(now)

	if len(rl.requests) >= rl.maxRequests {
		return false
	}
	if !rl.lastRequest.IsZero() && now.Sub(rl.lastRequest) < rl.requestDelay {
		return false
	}

	rl.requests = append(rl.requests, now)
	rl.lastRequest = now
	return true
}

// Wait blocks until a slot is available. The minimum inter-request delay
// is enforced independently of the window state.
func (rl *RequestLimiter) Wait(ctx context.Context) error {
	for {
		if rl.Allow() {
			return nil
		}

		delay := rl.nextDelay()
		if delay <= 0 {
			// Small sleep to prevent busy waiting
			delay = 50 * time.Millisecond
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// nextDelay computes how long until the next slot could open.
func (rl *RequestLimiter) nextDelay() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	var delay time.Duration

	if !rl.lastRequest.IsZero() {
		if d := rl.requestDelay - now.Sub(rl.lastRequest); d > delay {
			delay = d
		}
	}

	rl.cleanOldRequests(now)
	if len(rl.requests) >= rl.maxRequests {
		if d := rl.window - now.Sub(rl.requests[0]); d > delay {
			delay = d
		}
	}

	return delay
}

// Reset clears all recorded requests.
func (rl *RequestLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.requests = rl.requests[:0]
	rl.lastRequest = time.Time{}
}

// cleanOldRequests removes requests outside the sliding window.
// Caller must hold the mutex.
func (rl *RequestLimiter) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-rl.window)

	i := 0
	for i < len(rl.requests) && rl.requests[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(rl.requests, rl.requests[i:])
		rl.requests = rl.requests[:len(rl.requests)-i]
	}
}
