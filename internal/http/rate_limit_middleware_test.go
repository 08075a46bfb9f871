package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedRouter(rps float64, burst int) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.POST("/v1/cards/:id/recharge", RateLimitMiddleware(rps, burst, logger), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func sendRecharge(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/cards/abc/recharge", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Success_WithinBurst", func(t *testing.T) {
		router := newRateLimitedRouter(10, 5)

		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, sendRecharge(router, "192.0.2.1:1234").Code)
		}
	})

	t.Run("Error_BurstExceeded", func(t *testing.T) {
		router := newRateLimitedRouter(0.5, 2)

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, sendRecharge(router, "192.0.2.1:1234").Code)
		}

		w := sendRecharge(router, "192.0.2.1:1234")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
	})

	t.Run("Success_IndependentPerIP", func(t *testing.T) {
		router := newRateLimitedRouter(0.5, 1)

		assert.Equal(t, http.StatusOK, sendRecharge(router, "192.0.2.1:1234").Code)
		assert.Equal(t, http.StatusTooManyRequests, sendRecharge(router, "192.0.2.1:1234").Code)
		assert.Equal(t, http.StatusOK, sendRecharge(router, "192.0.2.2:1234").Code)
	})
}

func TestRateLimiterStore_RemoveIdle(t *testing.T) {
	store := &rateLimiterStore{rps: 1, burst: 1}

	store.getLimiter("192.0.2.1")
	store.getLimiter("192.0.2.2")

	val, ok := store.limiters.Load("192.0.2.1")
	require.True(t, ok)
	entry := val.(*rateLimiterEntry)
	entry.mu.Lock()
	entry.lastAccess = time.Now().Add(-2 * time.Hour)
	entry.mu.Unlock()

	store.removeIdle(time.Now().Add(-time.Hour))

	_, ok = store.limiters.Load("192.0.2.1")
	assert.False(t, ok)
	_, ok = store.limiters.Load("192.0.2.2")
	assert.True(t, ok)
}
