package limiter

import (
	"sync"
	"time"
)

type record struct {
	count     int
	resetTime time.Time
}

// FixedWindow is a per-identity fixed window counter: each identity gets up
// to limit admitted calls per window, the counter resets at discrete window
// boundaries. State lives in process memory only and is lost on restart.
type FixedWindow struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	records map[string]*record
	now     func() time.Time
}

func NewFixedWindow(limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{
		limit:   limit,
		window:  window,
		records: make(map[string]*record),
		now:     time.Now,
	}
}

// Allow reports whether the identity may proceed and counts the call if so.
// Callers without a usable identity share the single "unknown" bucket, which
// keeps unidentifiable traffic under one quota.
func (l *FixedWindow) Allow(identity string) bool {
	if identity == "" {
		identity = "unknown"
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, found := l.records[identity]

	if !found || now.After(rec.resetTime) {
		l.records[identity] = &record{count: 1, resetTime: now.Add(l.window)}
		return true
	}

	if rec.count >= l.limit {
		return false
	}

	rec.count++
	return true
}
