// ratelimit.go implements per-client rate limiting using a token bucket algorithm.
//
// How token bucket works:
// - Each client IP gets a "bucket" with N tokens (= the configured hourly limit)
// - Each request consumes 1 token
// - Tokens refill at a steady rate (N tokens per hour)
// - If the bucket is empty, the request is rejected with 429 Too Many Requests
//
// This is more sophisticated than a simple counter because it smooths out
// burst traffic naturally. It guards /api/proxy-ai, which spends real money
// on the server's provider keys.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// RateLimiter tracks request rates per client key.
type RateLimiter struct {
	// Go Pattern: a single mutex is enough here; every check mutates the
	// bucket, so there are no read-only paths to share.
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   float64
	now     func() time.Time
}

// bucket tracks the token state for a single client.
type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// allowResult contains the result of a rate limit check,
// including header information for the response.
type allowResult struct {
	allowed   bool
	remaining float64
	limit     float64
}

// NewRateLimiter creates a limiter allowing perHour requests per client.
// The background cleanup stops when ctx is cancelled.
func NewRateLimiter(ctx context.Context, perHour int) *RateLimiter {
	if perHour <= 0 {
		perHour = 600
	}
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   float64(perHour),
		now:     time.Now,
	}

	go rl.cleanup(ctx)

	return rl
}

// RateLimit returns Gin middleware that enforces per-IP limits.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		result := rl.allow(c.ClientIP())
		c.Header("X-RateLimit-Limit", formatFloat(result.limit))

		if !result.allowed {
			c.Header("X-RateLimit-Remaining", "0")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate_limit_exceeded",
				Message: "Rate limit exceeded. Try again later.",
				Code:    http.StatusTooManyRequests,
			})
			return
		}

		c.Header("X-RateLimit-Remaining", formatFloat(result.remaining))
		c.Next()
	}
}

// allow checks if a request should be allowed, consuming a token if so.
// Returns the result atomically so headers match the decision.
func (rl *RateLimiter) allow(key string) allowResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{tokens: rl.limit, lastRefill: now}
		rl.buckets[key] = b
	}

	// Refill tokens based on elapsed time
	refillRate := rl.limit / 3600.0 // tokens per second
	b.tokens += now.Sub(b.lastRefill).Seconds() * refillRate
	if b.tokens > rl.limit {
		b.tokens = rl.limit
	}
	b.lastRefill = now

	if b.tokens < 1.0 {
		return allowResult{allowed: false, remaining: 0, limit: rl.limit}
	}

	b.tokens--
	return allowResult{allowed: true, remaining: b.tokens, limit: rl.limit}
}

// cleanup periodically removes stale buckets to prevent memory leaks.
func (rl *RateLimiter) cleanup(ctx context.Context) {
	// Go Pattern: time.Ticker sends values at regular intervals.
	// Always defer ticker.Stop() to release resources.
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, b := range rl.buckets {
				// A bucket idle for an hour is full again anyway
				if now.Sub(b.lastRefill) > time.Hour {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// formatFloat converts a float to a string for headers.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.0f", f)
}
