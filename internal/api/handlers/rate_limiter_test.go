package handlers

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalRateLimiter_WindowsExpire(t *testing.T) {
	limiter := newLocalRateLimiter(200 * time.Millisecond)

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.allow(fmt.Sprintf("analysis:rate:198.51.100.%d", i), 2, 200*time.Millisecond)
		assert.True(t, allowed)
	}
	assert.Equal(t, 50, limiter.counts.ItemCount())

	allowed, _ := limiter.allow("analysis:rate:198.51.100.1", 2, 200*time.Millisecond)
	assert.True(t, allowed)
	allowed, retryAfter := limiter.allow("analysis:rate:198.51.100.1", 2, 200*time.Millisecond)
	assert.False(t, allowed)
	assert.Positive(t, retryAfter)

	time.Sleep(250 * time.Millisecond)
	limiter.counts.DeleteExpired()
	assert.Zero(t, limiter.counts.ItemCount())

	allowed, _ = limiter.allow("analysis:rate:198.51.100.1", 2, 200*time.Millisecond)
	assert.True(t, allowed)
}

func TestTrustedProxies_ClientIP(t *testing.T) {
	proxies := parseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.10", "not-a-network"})
	assert.Len(t, proxies, 2)

	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "direct peer ignores header", remoteAddr: "203.0.113.7:5000", forwarded: "198.51.100.1", want: "203.0.113.7"},
		{name: "trusted proxy", remoteAddr: "10.0.0.5:443", forwarded: "198.51.100.1", want: "198.51.100.1"},
		{name: "rightmost untrusted hop", remoteAddr: "10.0.0.5:443", forwarded: "1.1.1.1, 198.51.100.1, 192.168.1.10", want: "198.51.100.1"},
		{name: "malformed hop stops the walk", remoteAddr: "10.0.0.5:443", forwarded: "198.51.100.1, junk", want: "10.0.0.5"},
		{name: "no header", remoteAddr: "10.0.0.5:443", want: "10.0.0.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/analyses", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, proxies.clientIP(req))
		})
	}

	var none trustedProxies
	req := httptest.NewRequest("POST", "/api/analyses", nil)
	req.RemoteAddr = "203.0.113.7:5000"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	assert.Equal(t, "203.0.113.7", none.clientIP(req))
}
