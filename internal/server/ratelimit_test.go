package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNow is an adjustable clock for the limiter.
type fakeNow struct{ t time.Time }

func (f *fakeNow) now() time.Time          { return f.t }
func (f *fakeNow) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestLimiter(config RateLimitConfig) (*rateLimiter, *fakeNow) {
	clock := &fakeNow{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	rl := newRateLimiter("test", config)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_BasicRateLimit(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 3, Window: time.Second, BlockAfter: 10, BlockTime: time.Second})
	ip := "192.168.1.1"

	for i := 0; i < 3; i++ {
		assert.True(t, rl.check(ip).Allowed, "attempt %d should be allowed", i+1)
	}

	result := rl.check(ip)
	assert.False(t, result.Allowed)
	assert.False(t, result.IsBlocked)
	assert.Equal(t, "rate limit exceeded", result.Reason)
	assert.Equal(t, time.Second, result.RetryAfter)
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 2, Window: time.Minute, BlockAfter: 10, BlockTime: time.Second})
	ip := "192.168.1.2"

	require.True(t, rl.check(ip).Allowed)
	clock.advance(30 * time.Second)
	require.True(t, rl.check(ip).Allowed)

	result := rl.check(ip)
	require.False(t, result.Allowed)
	assert.Equal(t, 30*time.Second, result.RetryAfter)

	// The first attempt leaves the window.
	clock.advance(31 * time.Second)
	assert.True(t, rl.check(ip).Allowed)
	assert.False(t, rl.check(ip).Allowed)
}

func TestRateLimiter_FailureBlocking(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 20, Window: time.Minute, BlockAfter: 3, BlockTime: time.Minute})
	ip := "192.168.1.3"

	for i := 0; i < 3; i++ {
		rl.recordFailure(ip)
	}

	result := rl.check(ip)
	assert.False(t, result.Allowed)
	assert.True(t, result.IsBlocked)
	assert.Equal(t, "too many failed attempts", result.Reason)
	assert.Equal(t, time.Minute, result.RetryAfter)

	clock.advance(time.Minute)
	assert.True(t, rl.check(ip).Allowed)
}

func TestRateLimiter_SuccessResetsFailures(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 20, Window: time.Minute, BlockAfter: 5, BlockTime: time.Second})
	ip := "192.168.1.4"

	for i := 0; i < 4; i++ {
		rl.recordFailure(ip)
	}
	rl.recordSuccess(ip)
	for i := 0; i < 4; i++ {
		rl.recordFailure(ip)
	}

	assert.True(t, rl.check(ip).Allowed, "failures were reset by the success")
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 2, Window: time.Minute, BlockAfter: 10, BlockTime: time.Second})

	for i := 0; i < 2; i++ {
		require.True(t, rl.check("10.0.0.1").Allowed)
	}
	assert.False(t, rl.check("10.0.0.1").Allowed)
	assert.True(t, rl.check("10.0.0.2").Allowed)
}

func TestRateLimiter_ExponentialBackoff(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 100, Window: time.Minute, BlockAfter: 2, BlockTime: 10 * time.Second})
	ip := "192.168.1.30"

	blockFor := func() time.Duration {
		t.Helper()
		result := rl.check(ip)
		require.True(t, result.IsBlocked)
		return result.RetryAfter
	}

	rl.recordFailure(ip)
	rl.recordFailure(ip)
	assert.Equal(t, 10*time.Second, blockFor())

	clock.advance(10 * time.Second)
	rl.recordFailure(ip)
	rl.recordFailure(ip)
	assert.Equal(t, 20*time.Second, blockFor())

	clock.advance(20 * time.Second)
	rl.recordFailure(ip)
	rl.recordFailure(ip)
	assert.Equal(t, 40*time.Second, blockFor())
}

func TestRateLimiter_BlockCapped(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 100, Window: time.Minute, BlockAfter: 1, BlockTime: time.Hour})
	ip := "192.168.1.31"

	for i := 0; i < 80; i++ {
		rl.recordFailure(ip)
	}
	result := rl.check(ip)
	require.True(t, result.IsBlocked)
	assert.Equal(t, maxBlock, result.RetryAfter)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	t.Parallel()

	rl, clock := newTestLimiter(RateLimitConfig{MaxAttempts: 2, Window: time.Minute, BlockAfter: 2, BlockTime: time.Minute})
	ip := "192.168.1.20"

	rl.check(ip)
	rl.recordFailure(ip)
	rl.recordFailure(ip)

	clock.advance(2 * time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	assert.Empty(t, rl.attempts)
	assert.Empty(t, rl.blocked)
	assert.Empty(t, rl.failures)
	rl.mu.Unlock()

	assert.True(t, rl.check(ip).Allowed)
}

func TestRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter("test", RateLimitConfig{})
	assert.Equal(t, DefaultRateLimitConfig(), rl.config)

	config := DefaultRateLimitConfig()
	assert.Equal(t, 5, config.MaxAttempts)
	assert.Equal(t, time.Minute, config.Window)
	assert.Equal(t, 10, config.BlockAfter)
	assert.Equal(t, 5*time.Minute, config.BlockTime)
}

func TestRateLimiter_Middleware(t *testing.T) {
	t.Parallel()

	rl, _ := newTestLimiter(RateLimitConfig{MaxAttempts: 1, Window: 90 * time.Second, BlockAfter: 10, BlockTime: time.Second})
	handler := rl.limit(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/auth", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/auth", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "90", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remoteIP string
		expected string
	}{
		{
			name:     "X-Forwarded-For single IP",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteIP: "10.0.0.1:12345",
			expected: "203.0.113.50",
		},
		{
			name:     "X-Forwarded-For multiple IPs",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18, 150.172.238.178"},
			remoteIP: "10.0.0.1:12345",
			expected: "203.0.113.50",
		},
		{
			name:     "X-Real-IP",
			headers:  map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteIP: "10.0.0.1:12345",
			expected: "203.0.113.51",
		},
		{
			name:     "X-Forwarded-For takes precedence over X-Real-IP",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.50", "X-Real-IP": "203.0.113.51"},
			remoteIP: "10.0.0.1:12345",
			expected: "203.0.113.50",
		},
		{
			name:     "falls back to remote address",
			remoteIP: "10.0.0.1:12345",
			expected: "10.0.0.1",
		},
		{
			name:     "remote address without port",
			remoteIP: "10.0.0.1",
			expected: "10.0.0.1",
		},
		{
			name:     "X-Forwarded-For with whitespace",
			headers:  map[string]string{"X-Forwarded-For": "  203.0.113.50  "},
			remoteIP: "10.0.0.1:12345",
			expected: "203.0.113.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth", nil)
			req.RemoteAddr = tt.remoteIP
			for key, value := range tt.headers {
				req.Header.Set(key, value)
			}
			assert.Equal(t, tt.expected, extractIP(req))
		})
	}
}
