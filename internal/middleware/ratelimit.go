package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IPLimiter is a fixed-window request counter per client IP. Webhook
// deliveries come from a handful of provider IPs, so the limit must stay
// well above the provider's burst retry rate.
type IPLimiter struct {
	mu       sync.Mutex
	windows  map[string]*ipWindow
	limit    int
	interval time.Duration
}

type ipWindow struct {
	count   int
	resetAt time.Time
}

func NewIPLimiter(limit int, interval time.Duration) *IPLimiter {
	l := &IPLimiter{
		windows:  make(map[string]*ipWindow),
		limit:    limit,
		interval: interval,
	}
	go l.cleanup()
	return l
}

func (l *IPLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	w := l.windows[key]
	if w == nil || now.After(w.resetAt) {
		l.windows[key] = &ipWindow{count: 1, resetAt: now.Add(l.interval)}
		return true
	}
	if w.count >= l.limit {
		return false
	}
	w.count++
	return true
}

func (l *IPLimiter) cleanup() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		l.mu.Lock()
		now := time.Now()
		for k, w := range l.windows {
			if now.After(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.mu.Unlock()
	}
}

// RateLimit limits by client IP.
func RateLimit(limiter *IPLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests"})
			return
		}
		c.Next()
	}
}
