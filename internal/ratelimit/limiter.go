// Package ratelimit provides per-client rate limiting functionality.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines the rate limiting configuration.
type Config struct {
	RPS     float64       // Sustained requests per second per client
	Burst   int           // Bucket size
	IdleTTL time.Duration // Limiters unused for this long are evicted
}

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Limiter hands out one token bucket per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*entry
	config  Config
	now     func() time.Time
}

// New creates a Limiter. Call Sweep periodically (see Run) to drop idle clients.
func New(config Config) *Limiter {
	return &Limiter{
		clients: make(map[string]*entry),
		config:  config,
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.clients[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(rate.Limit(l.config.RPS), l.config.Burst)}
		l.clients[key] = e
	}
	e.lastUsed = l.now()
	l.mu.Unlock()

	return e.limiter.Allow()
}

// Sweep evicts limiters idle for longer than IdleTTL and returns how many
// were removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.config.IdleTTL)

	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.clients {
		if e.lastUsed.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}
