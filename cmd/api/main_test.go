package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dwes123/fpl-stats-go/internal/config"
	"github.com/dwes123/fpl-stats-go/internal/metrics"
	"github.com/dwes123/fpl-stats-go/internal/middleware"
	"github.com/dwes123/fpl-stats-go/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type emptyStats struct{}

func (emptyStats) ListRecent(context.Context, int) ([]store.GameweekStat, error) {
	return []store.GameweekStat{}, nil
}

func (emptyStats) ListByPlayer(context.Context, int, int) ([]store.GameweekStat, error) {
	return []store.GameweekStat{}, nil
}

func (emptyStats) PlayerSummary(context.Context, int, int) (*store.PlayerSummary, error) {
	return nil, store.ErrNotFound
}

func testRouter(rateLimit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{API: config.APIConfig{CORSOrigin: "http://localhost:3000"}}
	return newRouter(cfg, emptyStats{}, metrics.New(), middleware.NewRateLimiter(rateLimit, time.Minute), zap.NewNop())
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Routes(t *testing.T) {
	r := testRouter(100)

	tests := []struct {
		path string
		code int
	}{
		{"/ping", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/player-gameweek-stats", http.StatusOK},
		{"/player/1", http.StatusNotFound},
		{"/teams", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(r, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	rec := do(testRouter(100), req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouter_RateLimitsStatsButNotPing(t *testing.T) {
	r := testRouter(1)

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/player-gameweek-stats", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, httptest.NewRequest(http.MethodGet, "/player-gameweek-stats", nil)).Code)
	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/ping", nil)).Code)
}
