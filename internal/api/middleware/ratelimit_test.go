package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/politologod/vibes-marketplace/internal/api/middleware"
	"github.com/politologod/vibes-marketplace/internal/config"
)

func rateLimitedRouter(bucketSize, refillRate int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		RateLimitBucketSize: bucketSize,
		RateLimitRefillRate: refillRate,
	}
	rm := middleware.NewRateLimiterMiddleware(cfg)

	r := gin.New()
	r.GET("/ping", rm.Limit(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
	})
	return r
}

func TestRateLimiter_AllowsWithinBucket(t *testing.T) {
	r := rateLimitedRouter(5, 0)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d within the bucket must pass", i+1)
	}
}

func TestRateLimiter_RejectsWhenExhausted(t *testing.T) {
	r := rateLimitedRouter(2, 0)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Demasiadas solicitudes")
}

func TestRateLimiter_TracksClientsSeparately(t *testing.T) {
	r := rateLimitedRouter(1, 0)

	first := httptest.NewRecorder()
	reqA, _ := http.NewRequest("GET", "/ping", nil)
	reqA.RemoteAddr = "10.0.0.3:1234"
	r.ServeHTTP(first, reqA)
	assert.Equal(t, http.StatusOK, first.Code)

	blocked := httptest.NewRecorder()
	reqA2, _ := http.NewRequest("GET", "/ping", nil)
	reqA2.RemoteAddr = "10.0.0.3:1234"
	r.ServeHTTP(blocked, reqA2)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	// A different client gets its own bucket.
	other := httptest.NewRecorder()
	reqB, _ := http.NewRequest("GET", "/ping", nil)
	reqB.RemoteAddr = "10.0.0.4:1234"
	r.ServeHTTP(other, reqB)
	assert.Equal(t, http.StatusOK, other.Code)
}
