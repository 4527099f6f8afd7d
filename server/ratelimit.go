package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter keeps one token bucket per client key.
type clientLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	clients map[string]*limiterEntry
	now     func() time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// newClientLimiter returns nil when rps <= 0; a nil limiter allows everything.
func newClientLimiter(rps float64, burst int, now func() time.Time) *clientLimiter {
	if rps <= 0 {
		return nil
	}
	return &clientLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: make(map[string]*limiterEntry),
		now:     now,
	}
}

// Allow reports whether the client may make a request now.
func (c *clientLimiter) Allow(key string) bool {
	if c == nil {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ent, ok := c.clients[key]
	if !ok {
		ent = &limiterEntry{lim: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = ent
	}
	ent.lastSeen = now
	return ent.lim.AllowN(now, 1)
}

// Prune forgets clients idle for at least idle.
func (c *clientLimiter) Prune(idle time.Duration) int {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, ent := range c.clients {
		if now.Sub(ent.lastSeen) >= idle {
			delete(c.clients, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients.
func (c *clientLimiter) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}
