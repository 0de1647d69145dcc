package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a fixed-window per-IP request counter. Windows are
// tracked in memory; counters reset when the window elapses rather
// than sliding.
type rateLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	clients   map[string]*rateWindow
	nextSweep time.Time
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*rateWindow),
	}
}

// Allow reports whether the client identified by ip may proceed, and
// counts the request against the current window either way. When the
// request is over quota, retryAfter is the time remaining until the
// window resets.
func (l *rateLimiter) Allow(ip string) (allowed bool, retryAfter time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		l.sweepLocked(now)
		l.nextSweep = now.Add(l.window)
	}

	w, ok := l.clients[ip]
	if !ok || now.After(w.resetAt) {
		l.clients[ip] = &rateWindow{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	w.count++
	if w.count > l.limit {
		return false, w.resetAt.Sub(now)
	}
	return true, 0
}

// sweepLocked drops expired windows so the map does not grow unbounded.
// Callers must hold mu.
func (l *rateLimiter) sweepLocked(now time.Time) {
	for ip, w := range l.clients {
		if now.After(w.resetAt) {
			delete(l.clients, ip)
		}
	}
}

// clientIP extracts the remote address without the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
