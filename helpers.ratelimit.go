package main

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTimeout is how long a client limiter is kept without activity.
const limiterIdleTimeout = 5 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter holds one token bucket per client IP. Idle buckets are
// swept lazily on access, so no background goroutine is needed.
type IPRateLimiter struct {
	mu        sync.Mutex
	clock     Clocker
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	lastSweep time.Time
}

func NewIPRateLimiter(rps float64, burst int, clock Clocker) *IPRateLimiter {
	return &IPRateLimiter{
		clock:     clock,
		limiters:  make(map[string]*clientLimiter),
		rate:      rate.Limit(rps),
		burst:     burst,
		lastSweep: clock.Now(),
	}
}

// Allow reports whether the client identified by ip may proceed now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	now := rl.clock.Now()
	if now.Sub(rl.lastSweep) > limiterIdleTimeout {
		for key, cl := range rl.limiters {
			if now.Sub(cl.lastSeen) > limiterIdleTimeout {
				delete(rl.limiters, key)
			}
		}
		rl.lastSweep = now
	}

	cl, exists := rl.limiters[ip]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = cl
	}
	cl.lastSeen = now
	rl.mu.Unlock()

	return cl.limiter.AllowN(now, 1)
}

// Len returns the number of tracked clients.
func (rl *IPRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
