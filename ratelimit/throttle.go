// Package ratelimit guards ProxyConnection.Connect with a per-origin-host
// connect throttle, built the same way 6congyao-strike's
// pkg/filter/stream/common/limit.UserQPSLimiter keys a rate.Limiter per
// bucket in a TTL cache (SPEC_FULL §2).
package ratelimit

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	defaultBucketTTL     = 10 * time.Minute
	defaultCleanupPeriod = time.Minute
)

// Throttle rate-limits connect attempts per origin host, so a single
// misbehaving upstream can't be hammered by a flood of proxied requests.
type Throttle struct {
	maxPerSecond float64
	burst        int

	buckets *gocache.Cache
	mu      sync.Mutex
}

// New builds a Throttle allowing up to maxPerSecond connect attempts per
// origin, with burst allowance burst.
func New(maxPerSecond float64, burst int) *Throttle {
	return &Throttle{
		maxPerSecond: maxPerSecond,
		burst:        burst,
		buckets:      gocache.New(defaultBucketTTL, defaultCleanupPeriod),
	}
}

// Allow reports whether a connect attempt to origin may proceed now,
// consuming one token from that origin's bucket if so.
func (t *Throttle) Allow(origin string) bool {
	if t.maxPerSecond <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	limiter, found := t.buckets.Get(origin)
	if !found {
		limiter = rate.NewLimiter(rate.Limit(t.maxPerSecond), t.burst)
		t.buckets.Set(origin, limiter, defaultBucketTTL)
	}

	return limiter.(*rate.Limiter).Allow()
}
