// Package ratelimit provides token-bucket limiters over golang.org/x/time/rate.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute with a burst of 10% of it.
func New(requestsPerMinute int) *Limiter {
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return NewWithBurst(float64(requestsPerMinute)/60.0, burst)
}

// NewWithBurst creates a limiter with an explicit per-second rate and burst.
// A non-positive rate disables limiting.
func NewWithBurst(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether an event may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Keyed hands out one Limiter per key, all sharing the same rate and burst.
type Keyed struct {
	perSecond float64
	burst     int

	mu       sync.Mutex
	limiters map[string]*Limiter
}

// NewKeyed creates a Keyed limiter.
func NewKeyed(perSecond float64, burst int) *Keyed {
	return &Keyed{
		perSecond: perSecond,
		burst:     burst,
		limiters:  make(map[string]*Limiter),
	}
}

// For returns the limiter for key, creating it on first use.
func (k *Keyed) For(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.limiters[key]
	if !ok {
		l = NewWithBurst(k.perSecond, k.burst)
		k.limiters[key] = l
	}
	return l
}

// Allow reports whether an event for key may happen now.
func (k *Keyed) Allow(key string) bool {
	return k.For(key).Allow()
}
