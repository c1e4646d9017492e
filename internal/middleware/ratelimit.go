package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimitConfig defines the limit for a route group.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type rateEntry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter is an in-memory fixed-window per-IP rate limiter.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateEntry
	config  RateLimitConfig
	done    chan struct{}
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		entries: make(map[string]*rateEntry),
		config:  cfg,
		done:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Stop ends the background cleanup goroutine. Call at most once; the
// limiter itself keeps working after Stop.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

// NewAPIRateLimiter limits each IP to 100 requests per 15 minutes.
func NewAPIRateLimiter() *RateLimiter {
	return NewRateLimiter(RateLimitConfig{Max: 100, Window: 15 * time.Minute})
}

// Handler returns the gin middleware enforcing the limit.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests from this IP, please try again later",
			})
			return
		}
		c.Next()
	}
}

// Allow records a request for the key and reports whether it is within the
// window's budget.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	e, ok := rl.entries[key]
	if !ok || now.After(e.windowEnd) {
		rl.entries[key] = &rateEntry{count: 1, windowEnd: now.Add(rl.config.Window)}
		return true
	}

	e.count++
	return e.count <= rl.config.Max
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for key, e := range rl.entries {
				if now.After(e.windowEnd) {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}
