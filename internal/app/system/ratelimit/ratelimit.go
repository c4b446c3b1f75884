// Package ratelimit throttles repeated requests from a single client,
// primarily failed sign-in attempts. It counts hits per key in fixed
// windows and refuses further hits once a window fills up.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter tracks per-key hit counts. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

type bucket struct {
	hits    int
	resetAt time.Time
}

// New returns a limiter allowing limit hits per key per window. A
// background goroutine drops stale buckets so idle keys do not
// accumulate.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
	go l.sweep()
	return l
}

// Allow records a hit for key and reports whether it is within the
// limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		l.buckets[key] = &bucket{hits: 1, resetAt: now.Add(l.window)}
		return true
	}

	if b.hits >= l.limit {
		return false
	}
	b.hits++
	return true
}

// Remaining reports how many hits key has left in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || time.Now().After(b.resetAt) {
		return l.limit
	}
	if left := l.limit - b.hits; left > 0 {
		return left
	}
	return 0
}

// Reset clears the count for key. Called after a successful sign-in so
// an earlier typo streak does not lock the user out.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window * 2)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from a request, honoring
// X-Forwarded-For and X-Real-IP for proxied deployments before falling
// back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry in the list is the originating client.
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
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
