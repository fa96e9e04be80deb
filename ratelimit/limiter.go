// Package ratelimit implements a per-external-source sliding-window
// limiter: a fixed capacity N over a window of W seconds, backed by a
// monotonic timestamp queue, never blocking the caller.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Limiter is a sliding-window rate limiter over a single external source.
// State is an in-process timestamp queue protected by one mutex per
// instance — this is deliberately not Redis-backed: the limiter guards
// calls this process makes to one upstream, not a value shared across
// processes.
type Limiter struct {
	mu        sync.Mutex
	maxCalls  int
	window    time.Duration
	calls     []time.Time
	logger    zerolog.Logger
	name      string
}

// NewLimiter constructs a limiter admitting at most maxCalls calls in any
// trailing window of length window.
func NewLimiter(name string, maxCalls int, window time.Duration, logger zerolog.Logger) *Limiter {
	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		name:     name,
		logger:   logger.With().Str("component", "ratelimit").Str("source", name).Logger(),
	}
}

// CanCall reports whether a call is currently permitted, evicting
// timestamps that have aged out of the window first.
func (l *Limiter) CanCall() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(time.Now())
	return len(l.calls) < l.maxCalls
}

// AddCall records that a call was made, at the current time.
func (l *Limiter) AddCall() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, time.Now())
}

// WaitTime returns how long the caller must wait before the next call
// would be admitted: zero if under budget or if no call is recorded,
// otherwise the time until the oldest call in the window expires.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.evict(now)

	if len(l.calls) < l.maxCalls || len(l.calls) == 0 {
		return 0
	}

	oldest := l.calls[0]
	wait := l.window - now.Sub(oldest)
	if wait < 0 {
		return 0
	}
	return wait
}

// evict drops timestamps older than the window. Caller must hold l.mu.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.calls) && l.calls[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = l.calls[i:]
	}
}
