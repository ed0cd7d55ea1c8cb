package ratelimit

import (
	"sync"
	"time"
)

// Limiter is per-counterparty fixed-window admission control. It protects
// the downstream generator from a single flooding client, independent of
// any upstream service's own limits.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	max      int
	duration time.Duration
	now      func() time.Time
}

type window struct {
	start time.Time
	count int
}

const (
	DefaultMaxPerWindow   = 10
	DefaultWindowDuration = time.Second
)

func New(maxPerWindow int, windowDuration time.Duration) *Limiter {
	if maxPerWindow <= 0 {
		maxPerWindow = DefaultMaxPerWindow
	}
	if windowDuration <= 0 {
		windowDuration = DefaultWindowDuration
	}
	return &Limiter{
		windows:  make(map[string]*window),
		max:      maxPerWindow,
		duration: windowDuration,
		now:      time.Now,
	}
}

// TryAdmit admits the message when the counterparty's current window has
// capacity. The check-and-increment is atomic under the limiter lock, and
// the counter saturates at rejection instead of growing unbounded.
func (l *Limiter) TryAdmit(counterpartyID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[counterpartyID]
	if !ok || now.Sub(w.start) >= l.duration {
		l.windows[counterpartyID] = &window{start: now, count: 1}
		return true
	}
	if w.count >= l.max {
		return false
	}
	w.count++
	return true
}

// Forget drops tracking state for a counterparty, called on disconnect to
// bound memory growth.
func (l *Limiter) Forget(counterpartyID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, counterpartyID)
}
