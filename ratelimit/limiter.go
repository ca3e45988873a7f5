// Package ratelimit throttles outbound requests per destination route.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a token bucket per route, all sharing one rate.
// A rate of 0 disables limiting.
type Limiter struct {
	rate float64 // tokens per second, also the burst size

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// New creates a limiter allowing perSecond requests per route.
func New(perSecond int) *Limiter {
	return &Limiter{
		rate:    float64(perSecond),
		buckets: make(map[string]*bucket),
	}
}

// Enabled reports whether the limiter throttles at all.
func (l *Limiter) Enabled() bool {
	return l != nil && l.rate > 0
}

// Allow takes a token for route if one is available.
func (l *Limiter) Allow(route string) bool {
	if !l.Enabled() {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[route]
	if !ok {
		b = &bucket{tokens: l.rate, lastFill: time.Now()}
		l.buckets[route] = b
	}

	now := time.Now()
	b.tokens += now.Sub(b.lastFill).Seconds() * l.rate
	if b.tokens > l.rate {
		b.tokens = l.rate
	}
	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Wait blocks until route has a token or ctx is done.
func (l *Limiter) Wait(ctx context.Context, route string) error {
	if !l.Enabled() {
		return nil
	}

	interval := time.Duration(float64(time.Second) / l.rate)
	for !l.Allow(route) {
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Reset forgets the bucket state of a route.
func (l *Limiter) Reset(route string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, route)
}
