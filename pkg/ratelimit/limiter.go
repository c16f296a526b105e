package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a service
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Limiter names
const (
	LimiterConfluence = "confluence"
	LimiterAnthropic  = "anthropic"
	LimiterRSS        = "rss"
)

// Limits holds per-service request budgets
type Limits struct {
	ConfluenceRequestsPerMinute int
	AnthropicRequestsPerMinute  int
	FeedRequestsPerSecond       float64
}

// New creates a limiter from the configured budgets. Zero values fall back
// to the defaults used by NewDefaultLimiter.
func New(l Limits) *MultiLimiter {
	if l.ConfluenceRequestsPerMinute <= 0 {
		l.ConfluenceRequestsPerMinute = 60
	}
	if l.AnthropicRequestsPerMinute <= 0 {
		l.AnthropicRequestsPerMinute = 10
	}
	if l.FeedRequestsPerSecond <= 0 {
		l.FeedRequestsPerSecond = 5
	}

	m := NewMultiLimiter()
	m.AddLimiter(LimiterConfluence, float64(l.ConfluenceRequestsPerMinute)/60, 5)
	m.AddLimiter(LimiterAnthropic, float64(l.AnthropicRequestsPerMinute)/60, 2)
	// Feeds are fetched all at once, so the burst must cover a typical feed list
	m.AddLimiter(LimiterRSS, l.FeedRequestsPerSecond, 20)
	return m
}

// NewDefaultLimiter creates a limiter with default rate limits
func NewDefaultLimiter() *MultiLimiter {
	return New(Limits{})
}

// Unlimited returns a limiter whose buckets never block. Used by tests.
func Unlimited() *MultiLimiter {
	m := NewMultiLimiter()
	for _, name := range []string{LimiterConfluence, LimiterAnthropic, LimiterRSS} {
		m.limiters[name] = rate.NewLimiter(rate.Inf, 1)
	}
	return m
}
