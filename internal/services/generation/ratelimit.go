package generation

import (
	"sync"
	"time"
)

// Default budget for outbound provider calls.
const (
	DefaultCallLimit  = 50
	DefaultCallWindow = time.Hour
)

// RateLimiter caps provider calls per fixed window.
//
// Unlike the server's per-IP token bucket this is a plain counter that
// resets once a full window has passed since the last reset.
type RateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiter creates a limiter. now may be nil to use time.Now.
func NewRateLimiter(limit int, window time.Duration, now func() time.Time) *RateLimiter {
	if limit <= 0 {
		limit = DefaultCallLimit
	}
	if window <= 0 {
		window = DefaultCallWindow
	}
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{
		limit:     limit,
		window:    window,
		lastReset: now(),
		now:       now,
	}
}

// Allow consumes one call from the current window.
// It returns false, without consuming, when the ceiling is reached.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.resetIfElapsed()
	if rl.count >= rl.limit {
		return false
	}
	rl.count++
	return true
}

// Remaining reports how many calls are left in the current window.
func (rl *RateLimiter) Remaining() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.resetIfElapsed()
	return rl.limit - rl.count
}

// Limit returns the ceiling per window.
func (rl *RateLimiter) Limit() int {
	return rl.limit
}

func (rl *RateLimiter) resetIfElapsed() {
	now := rl.now()
	if now.Sub(rl.lastReset) > rl.window {
		rl.count = 0
		rl.lastReset = now
	}
}
