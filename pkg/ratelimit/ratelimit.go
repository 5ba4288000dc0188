// Package ratelimit tracks recent booking attempts per (tenant, user) and
// rejects bursts before a storage transaction is ever opened.
package ratelimit

import (
	"sync"
	"time"
)

// Result of a limiter check. RetryAfter is only set on rejection and tells
// the caller how long until the oldest retained attempt leaves the window.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Limiter interface {
	Check(tenantID, userID string) Result
}

// SlidingWindow is a sliding-window-log limiter: it keeps the timestamps of
// recent attempts per key and allows a call only while fewer than maxAttempts
// fall inside the trailing window. Entries are pruned lazily on each check.
// State is process-local and never persisted.
type SlidingWindow struct {
	mu          sync.Mutex
	attempts    map[string][]time.Time
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewSlidingWindow(maxAttempts int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		attempts:    make(map[string][]time.Time),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Check records an attempt for the key if allowed. The single lock around the
// map means two simultaneous checks for the same user cannot both pass when
// only one attempt-slot remains.
func (l *SlidingWindow) Check(tenantID, userID string) Result {
	key := tenantID + ":" + userID

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.attempts[key][:0]
	for _, t := range l.attempts[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.maxAttempts {
		l.attempts[key] = kept
		return Result{
			Allowed:    false,
			RetryAfter: kept[0].Sub(cutoff),
		}
	}

	l.attempts[key] = append(kept, now)
	return Result{Allowed: true}
}
