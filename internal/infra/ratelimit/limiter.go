package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits or rejects a request attributed to key (a client address).
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SlidingWindow is the in-process limiter: per-key request timestamps over a
// fixed window, pruned lazily on each call. State lives only in this process
// and dies with it. The mutex covers only the in-memory read-modify-write and
// is never held across I/O.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time

	now func() time.Time // replaced in tests
}

var _ Limiter = (*SlidingWindow)(nil)

func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		limit:  limit,
		window: window,
		hits:   map[string][]time.Time{},
		now:    time.Now,
	}
}

// Allow admits the request iff fewer than limit timestamps fall within the
// window, recording the current instant on admission.
func (l *SlidingWindow) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			history = append(history, t)
		}
	}
	if len(history) >= l.limit {
		l.hits[key] = history
		return false, nil
	}
	l.hits[key] = append(history, now)
	return true, nil
}
