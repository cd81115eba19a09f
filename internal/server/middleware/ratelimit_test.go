package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/permitmap/pkg/logging"
)

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 2, logging.NewNopLogger())
	h := RateLimit(rl)(okHandler)

	do := func(remote, fwd string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if fwd != "" {
			req.Header.Set("X-Forwarded-For", fwd)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1000", ""))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:2000", ""), "port does not matter")
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:3000", ""))
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1000", ""))

	assert.Equal(t, http.StatusOK, do("10.0.0.9:1", "1.2.3.4, 10.0.0.9"))
	assert.Equal(t, http.StatusOK, do("10.0.0.8:1", "1.2.3.4"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.7:1", "1.2.3.4"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", clientIP(req))
}
