package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Policy describes one per-client request budget and how a rejection reads.
type Policy struct {
	PerMinute int
	Burst     int
	Code      string
	Message   string
}

// GeneralPolicy limits every API request.
func GeneralPolicy(perMinute int) Policy {
	return Policy{
		PerMinute: perMinute,
		Burst:     perMinute,
		Code:      "rate_limit_exceeded",
		Message:   "Too many requests. Please try again later.",
	}
}

// ScrapePolicy is the stricter budget for requests that reach bookmeter.
func ScrapePolicy(perMinute int) Policy {
	return Policy{
		PerMinute: perMinute,
		Burst:     perMinute,
		Code:      "scrape_rate_limit_exceeded",
		Message:   "Scraping rate limit exceeded. Please wait before making more requests.",
	}
}

func (p Policy) limit() rate.Limit {
	if p.PerMinute <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(p.PerMinute))
}

// retryAfter is the number of seconds until one more request is allowed.
func (p Policy) retryAfter() int {
	if p.PerMinute <= 0 {
		return 0
	}
	return int(math.Ceil(60 / float64(p.PerMinute)))
}

// IPRateLimiter holds one token bucket per client IP
type IPRateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
}

// NewIPRateLimiter creates a limiter granting perMinute requests a minute
// with the given burst. A non-positive perMinute disables limiting.
func NewIPRateLimiter(perMinute, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    Policy{PerMinute: perMinute}.limit(),
		burst:    burst,
	}
}

// Limiter returns the bucket of ip, creating a full one on first use.
func (i *IPRateLimiter) Limiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(i.limit, i.burst)
		i.limiters[ip] = limiter
	}
	return limiter
}

// Prune drops the buckets that have refilled completely; recreating them
// later is indistinguishable from keeping them.
func (i *IPRateLimiter) Prune() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	pruned := 0
	for ip, limiter := range i.limiters {
		if limiter.Tokens() >= float64(i.burst) {
			delete(i.limiters, ip)
			pruned++
		}
	}
	return pruned
}

// Len is the number of buckets currently held.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// RateLimit rejects a client with 429 once it exceeds the policy.
func RateLimit(p Policy) gin.HandlerFunc {
	limiter := NewIPRateLimiter(p.PerMinute, p.Burst)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			limiter.Prune()
		}
	}()

	return rateLimit(p, limiter)
}

func rateLimit(p Policy, limiter *IPRateLimiter) gin.HandlerFunc {
	limitHeader := fmt.Sprintf("%d", p.PerMinute)
	retryAfter := p.retryAfter()

	return func(c *gin.Context) {
		bucket := limiter.Limiter(c.ClientIP())

		if !bucket.Allow() {
			c.Header("X-RateLimit-Limit", limitHeader)
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       p.Code,
				"message":     p.Message,
				"retry_after": retryAfter,
			})
			return
		}

		if p.PerMinute > 0 {
			c.Header("X-RateLimit-Limit", limitHeader)
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(bucket.Tokens())))
		}
		c.Next()
	}
}
