package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/weaveapp/weave/backend/go-services/pkg/metrics"
)

// per-key limiter store (simple in-memory token-bucket)
var limiterStore sync.Map // map[string]*rate.Limiter

// getLimiter returns (and lazily creates) a token-bucket limiter for the given key
func getLimiter(key string, rps float64, burst int) *rate.Limiter {
	v, ok := limiterStore.Load(key)
	if ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	limiterStore.Store(key, lim)
	return lim
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket per-key limit.
// Key selection: when request context contains a `claims` map with `sub`, that value is used
// (per-user NAT-friendly limiting). Otherwise the client IP from Gin is used.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		// pick key: prefer authenticated subject when present
		var key string
		if sub, ok := SubjectFromContext(c); ok {
			key = "sub:" + sub
		}
		if key == "" {
			ip := c.ClientIP()
			if ip == "" {
				ip = "unknown"
			}
			key = "ip:" + ip
		}

		lim := getLimiter(key, rps, burst)
		if !lim.Allow() {
			// set common rate limit headers (informational)
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
