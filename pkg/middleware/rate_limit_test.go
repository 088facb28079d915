package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// withSubject injects claims so each test gets its own limiter bucket.
func withSubject(sub string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("claims", map[string]interface{}{"sub": sub})
		c.Next()
	}
}

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(withSubject("rl-under"))
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	req := httptest.NewRequest("GET", "/ok", nil)
	w := httptest.NewRecorder()

	// two quick requests should pass
	r.ServeHTTP(w, req)
	req2 := httptest.NewRequest("GET", "/ok", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	r.Use(withSubject("rl-exceeded"))
	// very low rate to force rejections
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// first request -> allowed
	rq1 := httptest.NewRequest("GET", "/limited", nil)
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, rq1)
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request -> should be rate-limited
	rq2 := httptest.NewRequest("GET", "/limited", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, rq2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	// wait long enough to replenish one token
	time.Sleep(2100 * time.Millisecond)
	rq3 := httptest.NewRequest("GET", "/limited", nil)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, rq3)
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_SeparatesSubjects(t *testing.T) {
	r := gin.New()
	// each request authenticates as the subject named in the header
	r.Use(func(c *gin.Context) {
		c.Set("claims", map[string]interface{}{"sub": c.GetHeader("X-Test-Sub")})
		c.Next()
	})
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// exhaust subject A
	rq1 := httptest.NewRequest("GET", "/u", nil)
	rq1.Header.Set("X-Test-Sub", "rl-user-a")
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, rq1)
	require.Equal(t, http.StatusOK, w1.Code)

	rq2 := httptest.NewRequest("GET", "/u", nil)
	rq2.Header.Set("X-Test-Sub", "rl-user-a")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, rq2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)

	// a different subject still has tokens
	rq3 := httptest.NewRequest("GET", "/u", nil)
	rq3.Header.Set("X-Test-Sub", "rl-user-b")
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, rq3)
	require.Equal(t, http.StatusOK, w3.Code)
}
