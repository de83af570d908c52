// Package ratelimit provides a per-key token bucket built on
// golang.org/x/time/rate. Keys are typically an external identity or a
// client IP; idle buckets are evicted in the background.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// PerKey keeps one token bucket per key.
type PerKey struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
}

// New allows perMinute events per key with the given burst.
func New(perMinute float64, burst int) *PerKey {
	p := &PerKey{
		entries: make(map[string]*entry),
		limit:   rate.Limit(perMinute / 60.0),
		burst:   burst,
	}
	go p.evictLoop()
	return p
}

// Allow reports whether an event for key may proceed now.
func (p *PerKey) Allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(p.limit, p.burst)}
		p.entries[key] = e
	}
	e.lastSeen = time.Now()
	return e.lim.Allow()
}

func (p *PerKey) evictLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		p.mu.Lock()
		for key, e := range p.entries {
			if e.lastSeen.Before(cutoff) {
				delete(p.entries, key)
			}
		}
		p.mu.Unlock()
	}
}
