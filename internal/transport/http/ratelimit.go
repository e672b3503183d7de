package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// rateLimiter caps how many requests pass per minute. A limit of zero
// disables limiting.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	counter int
	last    time.Time
}

func newRateLimiter(limit int) *rateLimiter {
	return &rateLimiter{limit: limit, last: time.Now()}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if now.Sub(r.last) >= time.Minute {
		r.counter = 0
		r.last = now
	}
	r.counter++
	return r.counter <= r.limit
}

// RateLimitMiddleware rejects requests above the limiter's per-minute cap.
func RateLimitMiddleware(limiter *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.allow() {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
