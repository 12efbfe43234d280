package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a caller identified by key may make another
// request in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is a fixed-window limiter kept in process memory. It is used
// when no Redis address is configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	rate    int
	period  time.Duration
	now     func() time.Time
}

type window struct {
	remaining int
	start     time.Time
}

// NewMemoryLimiter allows rate requests per period for each key.
func NewMemoryLimiter(rate int, period time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		rate:    rate,
		period:  period,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.windows[key] = &window{remaining: l.rate - 1, start: now}
		l.evict(now)
		return l.rate > 0, nil
	}

	if w.remaining > 0 {
		w.remaining--
		return true, nil
	}
	return false, nil
}

// evict drops windows that ended more than one period ago so idle callers
// don't accumulate.
func (l *MemoryLimiter) evict(now time.Time) {
	if len(l.windows) < 1024 {
		return
	}
	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*l.period {
			delete(l.windows, key)
		}
	}
}
