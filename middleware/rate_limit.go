package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// clientWindow tracks requests from one IP within the current window.
type clientWindow struct {
	Count   int
	FirstAt time.Time
}

// RateLimiter applies a fixed-window per-IP request limit. It protects
// the mutating watchlist endpoints, which each trigger a quote-provider
// call, from a misbehaving client burning the provider's rate budget.
type RateLimiter struct {
	mu           sync.Mutex
	windows      map[string]*clientWindow
	maxRequests  int
	windowPeriod time.Duration
}

// NewRateLimiter allows maxRequests per IP per windowPeriod.
func NewRateLimiter(maxRequests int, windowPeriod time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows:      make(map[string]*clientWindow),
		maxRequests:  maxRequests,
		windowPeriod: windowPeriod,
	}
	go rl.startCleanup()
	return rl
}

// startCleanup periodically removes expired windows.
func (rl *RateLimiter) startCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, w := range rl.windows {
			if now.Sub(w.FirstAt) > rl.windowPeriod {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow records a request from ip and reports whether it is within the
// limit.
func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.FirstAt) > rl.windowPeriod {
		rl.windows[ip] = &clientWindow{Count: 1, FirstAt: now}
		return true
	}
	w.Count++
	return w.Count <= rl.maxRequests
}

// Handler returns the gin middleware enforcing the limit.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "too many requests, slow down",
			})
			return
		}
		c.Next()
	}
}
