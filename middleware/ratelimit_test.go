package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(3)
	handler := rl.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.RemoteAddr = "203.0.113.10:4321"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.RemoteAddr = "203.0.113.10:4321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterIsPerClient(t *testing.T) {
	rl := NewRateLimiter(1)
	handler := rl.Middleware(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/products", nil)
	first.RemoteAddr = "203.0.113.10:4321"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	assert.Equal(t, http.StatusOK, rec.Code)

	// a different client still has its own budget
	other := httptest.NewRequest(http.MethodGet, "/products", nil)
	other.RemoteAddr = "203.0.113.99:4321"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)

	again := httptest.NewRequest(http.MethodGet, "/products", nil)
	again.RemoteAddr = "203.0.113.10:4321"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, again)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
