package server

import (
	"sync"
	"time"
)

// admissionWindow is the rolling interval over which connection and message
// budgets are counted.
const admissionWindow = time.Minute

// windowLimiter counts events per key over a sliding window. A key is
// admitted while fewer than limit events occurred within the window, so a
// burst that exhausts the budget recovers as its events age out.
type windowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// allow records one event for key if the budget permits and reports whether
// it was admitted. Events older than the window no longer count.
func (l *windowLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, hit := range l.hits[key] {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}

	if len(kept) >= l.limit {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

// forget drops all recorded events for key. Called when a user departs so
// idle entries do not accumulate.
func (l *windowLimiter) forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.hits, key)
}
