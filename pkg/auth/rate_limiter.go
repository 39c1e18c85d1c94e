package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// TokenBucketLimiter implements token bucket rate limiting per key
type TokenBucketLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  int
	refillRate time.Duration
	idleTTL    time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

type bucket struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

var _ RateLimiter = (*TokenBucketLimiter)(nil)

// NewTokenBucketLimiter creates a limiter that holds maxTokens per key and
// refills one token every refillRate
func NewTokenBucketLimiter(maxTokens int, refillRate time.Duration) *TokenBucketLimiter {
	limiter := &TokenBucketLimiter{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		idleTTL:    time.Hour,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go limiter.cleanup(5 * time.Minute)

	return limiter
}

// NewPerMinuteLimiter allows requestsPerMinute per key
func NewPerMinuteLimiter(requestsPerMinute int) *TokenBucketLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return NewTokenBucketLimiter(requestsPerMinute, time.Minute/time.Duration(requestsPerMinute))
}

// Allow checks if a request is allowed
func (l *TokenBucketLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: l.maxTokens, lastRefill: now}
		l.buckets[key] = b
	}
	l.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	if tokensToAdd := int(now.Sub(b.lastRefill) / l.refillRate); tokensToAdd > 0 {
		b.tokens = min(b.tokens+tokensToAdd, l.maxTokens)
		b.lastRefill = b.lastRefill.Add(time.Duration(tokensToAdd) * l.refillRate)
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}
	return false, nil
}

// Reset resets the rate limit for a key
func (l *TokenBucketLimiter) Reset(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.buckets, key)
	return nil
}

// Stop ends the cleanup goroutine
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// cleanup removes idle buckets periodically
func (l *TokenBucketLimiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *TokenBucketLimiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, b := range l.buckets {
		b.mu.Lock()
		if now.Sub(b.lastRefill) > l.idleTTL {
			delete(l.buckets, key)
		}
		b.mu.Unlock()
	}
}
