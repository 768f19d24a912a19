// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle defaults.
const (
	DefaultLoginRate  = rate.Limit(0.2) // one attempt per 5s sustained
	DefaultLoginBurst = 5

	// throttleIdleTTL is how long an untouched bucket survives eviction.
	throttleIdleTTL = 15 * time.Minute
)

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginThrottle is a per-key token bucket for credential endpoints.
// Keys are client IPs.
type LoginThrottle struct {
	mu      sync.Mutex
	entries map[string]*throttleEntry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// NewLoginThrottle creates a throttle allowing burst attempts and then
// limit attempts per second per key.
func NewLoginThrottle(limit rate.Limit, burst int) *LoginThrottle {
	if limit <= 0 {
		limit = DefaultLoginRate
	}
	if burst <= 0 {
		burst = DefaultLoginBurst
	}
	return &LoginThrottle{
		entries: make(map[string]*throttleEntry),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow consumes a token for key and reports whether the attempt may proceed.
func (t *LoginThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[key]
	if !ok {
		e = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Evict drops buckets idle since before cutoff and returns how many.
func (t *LoginThrottle) Evict(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, e := range t.entries {
		if e.lastSeen.Before(cutoff) {
			delete(t.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (t *LoginThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// RunEviction evicts idle buckets every interval until ctx is done.
func (t *LoginThrottle) RunEviction(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Evict(t.now().Add(-throttleIdleTTL))
		}
	}
}
