package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func request(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }
	r := newEngine(rl.Handler())

	assert.Equal(t, http.StatusNoContent, request(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, request(r, "10.0.0.1").Code)

	rec := request(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, request(r, "10.0.0.2").Code, "other clients are unaffected")

	now = now.Add(30 * time.Second)
	assert.Equal(t, http.StatusNoContent, request(r, "10.0.0.1").Code, "one token refills every half window")
	assert.Equal(t, http.StatusTooManyRequests, request(r, "10.0.0.1").Code)

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusNoContent, request(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, request(r, "10.0.0.1").Code, "a full window refills the burst")
}

func TestRateLimiter_Disabled(t *testing.T) {
	r := newEngine(NewRateLimiter(0, time.Minute).Handler())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, request(r, "10.0.0.1").Code)
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5, time.Minute)
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1")
	now = now.Add(90 * time.Second)
	rl.allow("10.0.0.2")
	now = now.Add(45 * time.Second)
	rl.Sweep()

	require.Len(t, rl.visitors, 1)
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestSecurityHeaders(t *testing.T) {
	rec := request(newEngine(SecurityHeaders()), "10.0.0.1")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
}
