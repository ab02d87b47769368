package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a sliding-window per-IP limiter for the general API.
// Windows are trimmed in place on every hit, so an active IP never holds
// more than one interval of timestamps.
type RateLimiter struct {
	limit    int
	interval time.Duration
	windows  map[string][]time.Time
	mu       sync.Mutex
}

func NewRateLimiter(limit int, intervalSeconds int) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: time.Duration(intervalSeconds) * time.Second,
		windows:  make(map[string][]time.Time),
	}
}

// NewStrictRateLimiter guards login/register against brute force.
func NewStrictRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(1*time.Minute), 5)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many attempts, please wait",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()
		cutoff := now.Add(-rl.interval)

		rl.mu.Lock()
		window := rl.windows[ip]
		kept := window[:0]
		for _, t := range window {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}

		if len(kept) >= rl.limit {
			rl.windows[ip] = kept
			rl.mu.Unlock()
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}

		rl.windows[ip] = append(kept, now)
		rl.mu.Unlock()

		c.Next()
	}
}
