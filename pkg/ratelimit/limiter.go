package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// Interval enforces a minimum gap between consecutive permits. All
// holders of the same Interval share one clock, so requests issued
// through any of them are paced collectively.
//
// Wait stamps the clock before returning, not after the caller's work
// completes. Two back-to-back permits are therefore never handed out
// less than the gap apart even when the work following the first permit
// is slow.
type Interval struct {
	gap  time.Duration // minimum time between permits
	last time.Time     // when the previous permit was handed out
	mu   sync.Mutex
}

// NewInterval creates a limiter that hands out at most one permit per gap
func NewInterval(gap time.Duration) *Interval {
	return &Interval{gap: gap}
}

// Allow reports whether a permit is available right now, claiming it if so
func (i *Interval) Allow() bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := time.Now()
	if i.last.IsZero() || now.Sub(i.last) >= i.gap {
		i.last = now
		return true
	}

	return false
}

// Wait blocks until the gap since the previous permit has elapsed, then
// claims the permit. The mutex is held across the sleep so concurrent
// callers are serialized one full gap apart.
func (i *Interval) Wait() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.last.IsZero() {
		if remaining := i.gap - time.Since(i.last); remaining > 0 {
			time.Sleep(remaining)
		}
	}

	i.last = time.Now()
}

// Reset clears the clock; the next permit is immediate
func (i *Interval) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.last = time.Time{}
}

// Gap returns the configured minimum interval
func (i *Interval) Gap() time.Duration {
	return i.gap
}
