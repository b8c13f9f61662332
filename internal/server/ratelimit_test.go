package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedLimiter(perMinute, perHour, perDay int, bytesPerDay int64) (*RateLimiter, *time.Time) {
	rl := NewRateLimiter(perMinute, perHour, perDay, bytesPerDay)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_MinuteWindow(t *testing.T) {
	rl, now := newClockedLimiter(2, 0, 0, 0)

	require.NoError(t, rl.Allow("a", 0))
	require.NoError(t, rl.Allow("a", 0))

	err := rl.Allow("a", 0)
	var limitErr *LimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, LimitMinute, limitErr.Type)
	assert.Equal(t, int64(2), limitErr.Limit)
	assert.Equal(t, time.Minute, limitErr.RetryAfter)

	require.NoError(t, rl.Allow("b", 0), "clients are tracked separately")

	*now = now.Add(time.Minute)
	assert.NoError(t, rl.Allow("a", 0))
	assert.Equal(t, int64(1), rl.Usage("a").Minute)
	assert.Equal(t, int64(3), rl.Usage("a").Day)
}

func TestRateLimiter_SteadyTrafficDoesNotResetWindow(t *testing.T) {
	rl, now := newClockedLimiter(3, 0, 0, 0)

	for range 3 {
		require.NoError(t, rl.Allow("a", 0))
		*now = now.Add(15 * time.Second)
	}
	assert.Error(t, rl.Allow("a", 0))
}

func TestRateLimiter_Quotas(t *testing.T) {
	tests := []struct {
		name     string
		perHour  int
		perDay   int
		bytes    int64
		size     int64
		allowed  int
		wantType string
	}{
		{name: "hour", perHour: 2, allowed: 2, wantType: LimitHour},
		{name: "day count", perDay: 1, allowed: 1, wantType: LimitDayCount},
		{name: "day volume", bytes: 100, size: 40, allowed: 2, wantType: LimitDayVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, _ := newClockedLimiter(0, tt.perHour, tt.perDay, tt.bytes)
			for range tt.allowed {
				require.NoError(t, rl.Allow("c", tt.size))
			}
			err := rl.Allow("c", tt.size)
			var limitErr *LimitError
			require.True(t, errors.As(err, &limitErr))
			assert.Equal(t, tt.wantType, limitErr.Type)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, helloMatch, Config{RateLimit: RateLimitConfig{Enabled: true, RequestsPerMinute: 1}})

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader(""))
		r.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		return r
	}

	first := serve(s, req())
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := serve(s, req())
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, LimitMinute, second.Header().Get("X-RateLimit-Type"))
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded for", headers: map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, remote: "3.3.3.3:1", want: "1.1.1.1"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 4.4.4.4 "}, remote: "3.3.3.3:1", want: "4.4.4.4"},
		{name: "remote addr", remote: "5.5.5.5:8080", want: "5.5.5.5"},
		{name: "remote without port", remote: "6.6.6.6", want: "6.6.6.6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
