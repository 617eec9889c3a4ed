package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// clientIDHeader identifies the submitter for rate limiting. It carries the
// trading participant, not the order correlation id.
const clientIDHeader = "X-Client-ID"

// pruneThreshold bounds the tracking map: once it grows past this many
// clients, entries idle longer than ten intervals are discarded.
const pruneThreshold = 4096

// RateLimiter enforces a minimum interval between requests per client.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	lastSeen map[string]time.Time
	now      func() time.Time
}

func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{
		interval: interval,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether clientID may submit now and records the attempt.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if last, ok := rl.lastSeen[clientID]; ok && now.Sub(last) < rl.interval {
		return false
	}
	if len(rl.lastSeen) >= pruneThreshold {
		rl.prune(now)
	}
	rl.lastSeen[clientID] = now
	return true
}

func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-10 * rl.interval)
	for id, last := range rl.lastSeen {
		if last.Before(cutoff) {
			delete(rl.lastSeen, id)
		}
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(clientIDHeader)
		if clientID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": clientIDHeader + " header required"})
			return
		}
		if !rl.Allow(clientID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
