package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Policy is a token bucket refilled at Limit per second up to Burst tokens.
type Policy struct {
	Limit rate.Limit
	Burst int
}

// Every builds a Policy that allows burst actions and refills one token per
// interval.
func Every(interval time.Duration, burst int) Policy {
	return Policy{Limit: rate.Every(interval), Burst: burst}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per key and action.
type RateLimiter struct {
	buckets  map[string]*bucket
	policies map[string]Policy
	fallback Policy
	mutex    sync.Mutex
}

func NewRateLimiter(fallback Policy) *RateLimiter {
	return &RateLimiter{
		buckets:  make(map[string]*bucket),
		policies: make(map[string]Policy),
		fallback: fallback,
	}
}

// SetPolicy overrides the bucket shape for one action. Buckets created
// before the call keep their old shape.
func (rl *RateLimiter) SetPolicy(action string, policy Policy) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	rl.policies[action] = policy
}

// Allow consumes a token for key and action. When the bucket is empty it
// reports how long until the next token.
func (rl *RateLimiter) Allow(key, action string) (bool, time.Duration) {
	now := time.Now()
	limiter := rl.limiter(key, action, now)

	reservation := limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0
	}
	if wait := reservation.DelayFrom(now); wait > 0 {
		reservation.CancelAt(now)
		return false, wait
	}
	return true, 0
}

func (rl *RateLimiter) limiter(key, action string, now time.Time) *rate.Limiter {
	id := key + ":" + action

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	b, ok := rl.buckets[id]
	if !ok {
		policy, found := rl.policies[action]
		if !found {
			policy = rl.fallback
		}
		b = &bucket{limiter: rate.NewLimiter(policy.Limit, policy.Burst)}
		rl.buckets[id] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Tokens returns the tokens currently available for key and action, or the
// full burst when the bucket does not exist yet.
func (rl *RateLimiter) Tokens(key, action string) float64 {
	rl.mutex.Lock()
	b, ok := rl.buckets[key+":"+action]
	policy, found := rl.policies[action]
	rl.mutex.Unlock()

	if ok {
		return b.limiter.Tokens()
	}
	if !found {
		policy = rl.fallback
	}
	return float64(policy.Burst)
}

// Cleanup drops buckets idle for longer than maxIdle.
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	for id, b := range rl.buckets {
		if now.Sub(b.lastSeen) > maxIdle {
			delete(rl.buckets, id)
		}
	}
}

func (rl *RateLimiter) StartCleanupRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.Cleanup(time.Hour)
			case <-ctx.Done():
				return
			}
		}
	}()
}
