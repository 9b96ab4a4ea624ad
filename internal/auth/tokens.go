package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// Sessions issues and validates bearer tokens bound to a user ID.
type Sessions struct {
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]session
}

type session struct {
	uid    string
	expiry time.Time
}

// NewSessions returns a token registry whose tokens live for ttl.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]session),
	}
}

// Issue creates a token for uid.
func (s *Sessions) Issue(uid string) (string, error) {
	// 32 bytes of random data (256 bits)
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.tokens[token] = session{uid: uid, expiry: s.now().Add(s.ttl)}
	s.mu.Unlock()

	return token, nil
}

// Lookup returns the user bound to token if it exists and has not expired.
func (s *Sessions) Lookup(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	s.mu.RLock()
	sess, ok := s.tokens[token]
	s.mu.RUnlock()

	if !ok || !s.now().Before(sess.expiry) {
		return "", false
	}
	return sess.uid, true
}

// Revoke removes a token. It returns the user it was bound to, if any.
func (s *Sessions) Revoke(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.tokens[token]
	delete(s.tokens, token)
	return sess.uid, ok
}

// Active reports whether uid holds any unexpired token.
func (s *Sessions) Active(uid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	for _, sess := range s.tokens {
		if sess.uid == uid && now.Before(sess.expiry) {
			return true
		}
	}
	return false
}

// Cleanup removes expired tokens and returns the users that no longer hold
// any token.
func (s *Sessions) Cleanup() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := make(map[string]bool)
	for token, sess := range s.tokens {
		if !now.Before(sess.expiry) {
			delete(s.tokens, token)
			expired[sess.uid] = true
		}
	}
	for _, sess := range s.tokens {
		delete(expired, sess.uid)
	}

	uids := make([]string, 0, len(expired))
	for uid := range expired {
		uids = append(uids, uid)
	}
	return uids
}

// Run calls Cleanup every interval until ctx is done, passing the users
// left without tokens to onExpire.
func (s *Sessions) Run(ctx context.Context, interval time.Duration, onExpire func(uids []string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if uids := s.Cleanup(); len(uids) > 0 && onExpire != nil {
				onExpire(uids)
			}
		}
	}
}
