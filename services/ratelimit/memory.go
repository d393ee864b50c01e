package ratelimit

import (
	"context"
	"sync"
	"time"
)

// NowFunc is swappable in tests.
var NowFunc = time.Now

type window struct {
	count   int
	resetAt time.Time
}

type memoryLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	requests  int
	interval  time.Duration
	nextSweep time.Time
}

var _ Limiter = (*memoryLimiter)(nil)

// NewMemoryLimiter allows up to requests per interval per key. Suitable for a
// single process; use the Redis limiter behind a load balancer.
func NewMemoryLimiter(requests int, interval time.Duration) *memoryLimiter {
	return &memoryLimiter{
		windows:  make(map[string]*window),
		requests: requests,
		interval: interval,
	}
}

func (l *memoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := NowFunc()
	l.sweep(now)

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.interval)}
		return true, nil
	}
	if w.count >= l.requests {
		return false, nil
	}
	w.count++
	return true, nil
}

// sweep drops expired windows at most once per interval so idle keys do not
// accumulate for the process lifetime. Callers hold the mutex.
func (l *memoryLimiter) sweep(now time.Time) {
	if now.Before(l.nextSweep) {
		return
	}
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
	l.nextSweep = now.Add(l.interval)
}
