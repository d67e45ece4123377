// Package ratelimit provides a keyed token-bucket rate limiter for inbound
// requests.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultIdleTTL is how long an untouched key keeps its bucket.
const DefaultIdleTTL = 15 * time.Minute

// sweepThreshold is the number of tracked keys above which idle buckets are
// evicted on the next new key.
const sweepThreshold = 1024

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent bucket. Idle buckets are evicted
// lazily when a new key arrives, so no background goroutine is needed.
type KeyedRateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
}

// Option customises a KeyedRateLimiter.
type Option func(*KeyedRateLimiter)

// WithClock replaces time.Now. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(k *KeyedRateLimiter) { k.now = now }
}

// WithIdleTTL sets how long an unused bucket is kept.
func WithIdleTTL(d time.Duration) Option {
	return func(k *KeyedRateLimiter) { k.idleTTL = d }
}

// New creates a new keyed rate limiter.
// rps: requests per second allowed.
// burst: maximum burst size (tokens available immediately).
func New(rps float64, burst int, opts ...Option) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		entries: make(map[string]*entry),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(krl)
	}
	return krl
}

// PerMinute converts a per-minute budget into the rps New expects.
func PerMinute(n int) float64 {
	return float64(n) / 60
}

// Allow reports whether a request for key may proceed now, consuming a token
// if so. It never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	now := krl.now()
	return krl.get(key, now).AllowN(now, 1)
}

// RetryAfter returns how long until key has a token again. Zero means a
// request would be allowed now.
func (krl *KeyedRateLimiter) RetryAfter(key string) time.Duration {
	now := krl.now()
	l := krl.get(key, now)
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return 0
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	return d
}

// Len returns the number of keys currently tracked.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.entries)
}

func (krl *KeyedRateLimiter) get(key string, now time.Time) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	if e, ok := krl.entries[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	if len(krl.entries) >= sweepThreshold {
		krl.evictIdle(now)
	}

	e := &entry{limiter: rate.NewLimiter(krl.limit, krl.burst), lastSeen: now}
	krl.entries[key] = e
	return e.limiter
}

// evictIdle drops buckets untouched for idleTTL. A bucket idle that long has
// refilled, so dropping it does not loosen the limit. Caller holds mu.
func (krl *KeyedRateLimiter) evictIdle(now time.Time) {
	for k, e := range krl.entries {
		if now.Sub(e.lastSeen) >= krl.idleTTL {
			delete(krl.entries, k)
		}
	}
}
