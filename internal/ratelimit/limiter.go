// Package ratelimit implements the sliding-window rate limiter (C2)
// and the back-off ladders consumers apply around it. Grounded
// directly on original_source/agents/utils/rate_limiter.py's
// RateLimiter (deque of request timestamps, usage-based back-off).
// The 429-retry ladder implements github.com/cenkalti/backoff/v4's
// BackOff interface; the usage-driven 2^k ladder is computed directly
// by ExponentialBackoff. backoff is the pack's common retry-library
// choice (buildkite-agent,
// itsneelabh-gomind, presmihaylov-ccagent, goadesign-goa-ai,
// dyluth-holt all carry a cenkalti/backoff variant).
package ratelimit

import (
	"container/list"
	"math"
	"sync"
	"time"
)

// MaxBackoff is the ceiling for the usage-driven exponential back-off
// (spec.md §4.2: MAX_BACKOFF = 300).
const MaxBackoff = 300 * time.Second

// CriticalUsage is the usage fraction (0..1) at which consumers must
// apply exponential back-off (spec.md §4.2: "When usage >= 90%").
const CriticalUsage = 0.90

// Metrics is the snapshot returned by Limiter.Metrics().
type Metrics struct {
	Current      int
	Limit        int
	UsagePercent float64
	Wait         time.Duration
}

// Limiter is a provider-scoped sliding-window request admission
// controller. Multiple Limiters may coexist, one per provider
// (spec.md §4.2).
type Limiter struct {
	mu         sync.Mutex
	maxReqs    int
	window     time.Duration
	timestamps *list.List // monotonic deque of time.Time, oldest at Front
}

// New constructs a Limiter with the given (max_requests, window)
// pair. The default provider limit is 50 requests / 60s (spec.md §4.2)
// but callers configure it explicitly per provider.
func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		maxReqs:    maxRequests,
		window:     window,
		timestamps: list.New(),
	}
}

// DefaultLimiter returns a Limiter configured with the spec's default
// of 50 requests / 60 seconds.
func DefaultLimiter() *Limiter {
	return New(50, 60*time.Second)
}

// evict removes timestamps older than now-window. Must be called with
// the mutex held.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.window)
	for e := l.timestamps.Front(); e != nil; {
		next := e.Next()
		if e.Value.(time.Time).Before(cutoff) || e.Value.(time.Time).Equal(cutoff) {
			l.timestamps.Remove(e)
			e = next
			continue
		}
		break
	}
}

// Allow reports whether a new request may be admitted right now,
// without recording it.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(time.Now())
	return l.timestamps.Len() < l.maxReqs
}

// Record appends the current time to the window. Holding the mutex
// across the external call itself is forbidden (spec.md §4.2) — Record
// is called only after the call returns.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.evict(now)
	l.timestamps.PushBack(now)
}

// WaitTime returns how long the caller must wait before the next slot
// frees up: 0 if the window is not full, else the time until the
// oldest entry expires.
func (l *Limiter) WaitTime() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.evict(now)
	if l.timestamps.Len() < l.maxReqs {
		return 0
	}
	oldest := l.timestamps.Front().Value.(time.Time)
	wait := oldest.Add(l.window).Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// Metrics returns the current usage snapshot (spec.md §4.2: "allow(),
// record(), wait_time(), metrics()").
func (l *Limiter) Metrics() Metrics {
	l.mu.Lock()
	now := time.Now()
	l.evict(now)
	current := l.timestamps.Len()
	l.mu.Unlock()

	return Metrics{
		Current:      current,
		Limit:        l.maxReqs,
		UsagePercent: float64(current) / float64(l.maxReqs) * 100,
		Wait:         l.WaitTime(),
	}
}

// UsageRatio returns current usage as a fraction in [0, 1+].
func (l *Limiter) UsageRatio() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(time.Now())
	return float64(l.timestamps.Len()) / float64(l.maxReqs)
}

// IsCritical reports whether usage has reached the 90% back-off
// threshold (spec.md §4.2, §8 boundary: 90% triggers, 89% does not).
func (l *Limiter) IsCritical() bool {
	return l.UsageRatio() >= CriticalUsage
}

// ExponentialBackoff computes delay_k = min(MAX_BACKOFF, 2^k) seconds
// for the usage-driven back-off ladder (spec.md §4.2).
func ExponentialBackoff(k int) time.Duration {
	seconds := math.Pow(2, float64(k))
	d := time.Duration(seconds * float64(time.Second))
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}
