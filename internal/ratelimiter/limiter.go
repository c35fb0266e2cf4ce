package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	// mu makes the token check and the take one step.
	mu       sync.Mutex
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RecipientLimiter holds one token bucket per recipient identifier.
// Each bucket allows `limit` dispatches per `interval`, with burst equal to
// limit so a quiet recipient can receive a full window at once.
type RecipientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	every    rate.Limit
	burst    int
	now      func() time.Time
}

// New creates a RecipientLimiter allowing limit dispatches per interval per
// identifier. A non-positive limit disables limiting.
func New(limit int, interval time.Duration) *RecipientLimiter {
	l := &RecipientLimiter{
		limiters: make(map[string]*entry),
		burst:    limit,
		now:      time.Now,
	}
	if limit <= 0 || interval <= 0 {
		l.every = rate.Inf
	} else {
		l.every = rate.Every(interval / time.Duration(limit))
	}
	return l
}

// Consume takes one token for identifier. When the bucket is empty it returns
// false and the time until the next token becomes available; no token is
// spent in that case.
func (l *RecipientLimiter) Consume(identifier string) (bool, time.Duration) {
	if l.every == rate.Inf {
		return true, 0
	}

	now := l.now()

	l.mu.Lock()
	e, ok := l.limiters[identifier]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[identifier] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if tokens := e.limiter.TokensAt(now); tokens < 1 {
		deficit := 1 - tokens
		delay := time.Duration(deficit / float64(l.every) * float64(time.Second))
		return false, max(delay, time.Millisecond)
	}
	e.limiter.AllowN(now, 1)
	return true, 0
}

// Prune drops buckets untouched for longer than idle and returns how many
// were removed. With idle at least the limiter interval a pruned bucket was
// already full, so later decisions are unchanged.
func (l *RecipientLimiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, e := range l.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked identifiers.
func (l *RecipientLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
