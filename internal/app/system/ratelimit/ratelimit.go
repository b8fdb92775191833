// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/dalemusser/larder/internal/app/system/auditlog"
)

// Limiter provides rate limiting using a fixed window per key.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter and starts its cleanup loop.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Remaining returns how many requests are left for this key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.windows[key]
	if !exists || l.now().After(w.expiresAt) {
		return l.limit
	}

	remaining := l.limit - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the rate limit for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Stop ends the cleanup loop.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// cleanupLoop periodically removes expired entries to prevent memory leaks.
func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// InviteLimiter throttles invite acceptance. It tracks both the actor and
// the client IP so neither one user nor one address can walk the token
// space.
type InviteLimiter struct {
	actorLimiter *Limiter
	ipLimiter    *Limiter
}

// NewInviteLimiter creates an invite limiter with custom limits.
func NewInviteLimiter(actorLimit int, actorWindow time.Duration, ipLimit int, ipWindow time.Duration) *InviteLimiter {
	return &InviteLimiter{
		actorLimiter: New(actorLimit, actorWindow),
		ipLimiter:    New(ipLimit, ipWindow),
	}
}

// Check verifies if an accept attempt should be allowed.
// Returns (allowed, reason) where reason explains why it was blocked.
func (il *InviteLimiter) Check(r *http.Request, actorID string) (bool, string) {
	if !il.ipLimiter.Allow(auditlog.ClientIP(r)) {
		return false, "too many invite attempts from this address"
	}
	if actorID != "" && !il.actorLimiter.Allow(actorID) {
		return false, "too many invite attempts for this user"
	}
	return true, ""
}

// ResetActor clears the actor's count after a successful accept.
func (il *InviteLimiter) ResetActor(actorID string) {
	if actorID != "" {
		il.actorLimiter.Reset(actorID)
	}
}

// Stop ends both cleanup loops.
func (il *InviteLimiter) Stop() {
	il.actorLimiter.Stop()
	il.ipLimiter.Stop()
}
