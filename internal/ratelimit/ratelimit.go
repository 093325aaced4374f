// Package ratelimit holds a process-local fixed-window request counter.
// State lives in this process only, so it neither survives restarts nor
// coordinates across instances; acceptable here because write volume is low
// and the cost of a bypass is low. Unsuitable for a multi-instance deployment.
package ratelimit

import (
	"sync"
	"time"
)

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter counts requests per key within a fixed window. The window resets
// lazily on the first request after it expires.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*entry
	now     func() time.Time
}

func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// window's budget, along with the remaining count.
func (l *Limiter) Allow(key string) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.resetAt) {
		l.entries[key] = &entry{count: 1, resetAt: now.Add(l.window)}
		return true, l.max - 1
	}

	if e.count >= l.max {
		return false, 0
	}

	e.count++
	return true, l.max - e.count
}

// Cleanup evicts expired windows. Run it periodically so abandoned keys do
// not accumulate.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
		}
	}
}
