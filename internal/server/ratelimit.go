package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bluejays/teamtrack/internal/logging"
)

// RateLimitConfig holds rate limiting configuration for credential endpoints.
type RateLimitConfig struct {
	MaxAttempts int           // Maximum attempts per window (default: 5)
	Window      time.Duration // Sliding window (default: 1 minute)
	BlockAfter  int           // Block after this many failed attempts (default: 10)
	BlockTime   time.Duration // Base block duration (default: 5 minutes, doubles each block)
}

// DefaultRateLimitConfig returns the default rate limiting configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts: 5,
		Window:      time.Minute,
		BlockAfter:  10,
		BlockTime:   5 * time.Minute,
	}
}

const maxBlock = 24 * time.Hour

// rateLimiter is a per-IP sliding window limiter that also blocks IPs with
// repeated credential failures, doubling the block each time.
type rateLimiter struct {
	mu     sync.Mutex
	scope  string
	config RateLimitConfig
	now    func() time.Time

	attempts map[string][]time.Time
	failures map[string]int
	blocked  map[string]time.Time
}

func newRateLimiter(scope string, config RateLimitConfig) *rateLimiter {
	def := DefaultRateLimitConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	if config.BlockAfter <= 0 {
		config.BlockAfter = def.BlockAfter
	}
	if config.BlockTime <= 0 {
		config.BlockTime = def.BlockTime
	}

	return &rateLimiter{
		scope:    scope,
		config:   config,
		now:      time.Now,
		attempts: make(map[string][]time.Time),
		failures: make(map[string]int),
		blocked:  make(map[string]time.Time),
	}
}

// checkResult is the outcome of a rate limit check.
type checkResult struct {
	Allowed    bool
	RetryAfter time.Duration
	IsBlocked  bool   // blocked for failures rather than volume
	Reason     string // human-readable rejection reason
}

// check records an attempt from ip if it is allowed.
func (rl *rateLimiter) check(ip string) checkResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	if expiry, ok := rl.blocked[ip]; ok {
		if now.Before(expiry) {
			return checkResult{
				RetryAfter: expiry.Sub(now),
				IsBlocked:  true,
				Reason:     "too many failed attempts",
			}
		}
		delete(rl.blocked, ip)
	}

	recent := rl.prune(ip, now)
	if len(recent) >= rl.config.MaxAttempts {
		retryAfter := recent[0].Add(rl.config.Window).Sub(now)
		if retryAfter <= 0 {
			retryAfter = time.Second
		}
		return checkResult{
			RetryAfter: retryAfter,
			Reason:     "rate limit exceeded",
		}
	}

	rl.attempts[ip] = append(recent, now)
	return checkResult{Allowed: true}
}

// prune drops attempts outside the window. Caller holds mu.
func (rl *rateLimiter) prune(ip string, now time.Time) []time.Time {
	windowStart := now.Add(-rl.config.Window)
	timestamps := rl.attempts[ip]
	kept := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = kept
	return kept
}

// recordSuccess clears ip's failure history.
func (rl *rateLimiter) recordSuccess(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	delete(rl.failures, ip)
	delete(rl.blocked, ip)
}

// recordFailure counts a failed credential check and blocks ip every
// BlockAfter failures, for BlockTime * 2^(blocks-1) capped at 24h.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.failures[ip]++
	count := rl.failures[ip]
	if count < rl.config.BlockAfter {
		return
	}

	blocks := (count - rl.config.BlockAfter) / rl.config.BlockAfter
	d := rl.config.BlockTime
	for i := 0; i < blocks && d < maxBlock; i++ {
		d *= 2
	}
	d = min(d, maxBlock)
	rl.blocked[ip] = rl.now().Add(d)

	logging.Warn("blocked client after failed attempts",
		"scope", rl.scope, "ip", ip, "failures", count, "block", d.String())
}

// cleanup removes expired attempts, blocks and stale failure counts.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip := range rl.attempts {
		rl.prune(ip, now)
	}
	for ip, expiry := range rl.blocked {
		if !now.Before(expiry) {
			delete(rl.blocked, ip)
		}
	}
	for ip := range rl.failures {
		_, blocked := rl.blocked[ip]
		_, active := rl.attempts[ip]
		if !blocked && !active {
			delete(rl.failures, ip)
		}
	}
}

// limit rejects requests over the limit with 429 and a Retry-After header.
func (rl *rateLimiter) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		res := rl.check(ip)
		if !res.Allowed {
			secs := int(math.Ceil(res.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			logging.Debug("rate limited", "scope", rl.scope, "ip", ip, "reason", res.Reason, "retry_after", secs)
			writeError(w, http.StatusTooManyRequests, res.Reason)
			return
		}
		next(w, r)
	}
}

// extractIP returns the client IP, preferring the first X-Forwarded-For
// entry, then X-Real-IP, then the remote address.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
