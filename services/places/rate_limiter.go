package places

import (
	"context"
	"sync"
	"time"
)

// RateLimiter implements a token bucket rate limiter for Maps API requests
// This keeps the app inside its QPS allowance and avoids OVER_QUERY_LIMIT
type RateLimiter struct {
	mu sync.Mutex

	// Search bucket covers geocoding and nearby search requests
	tokens         float64       // Current number of tokens
	maxTokens      float64       // Maximum tokens (bucket size)
	refillRate     float64       // Tokens added per second
	lastRefillTime time.Time     // Last time tokens were refilled
	minInterval    time.Duration // Minimum interval between requests

	// Details bucket is burstier, one request fires per place found
	detailsTokens         float64
	detailsMaxTokens      float64
	detailsRefillRate     float64
	detailsLastRefillTime time.Time
	detailsMinInterval    time.Duration
}

// RateLimiterConfig holds configuration for the rate limiter
type RateLimiterConfig struct {
	// Search rate limiting (geocode + nearby search)
	MaxTokens   float64       // Max burst capacity (default: 5)
	RefillRate  float64       // Tokens per second (default: 2)
	MinInterval time.Duration // Minimum time between requests (default: 100ms)

	// Details rate limiting (one call per place, fired in bursts)
	DetailsMaxTokens   float64       // Max burst for details calls (default: 10)
	DetailsRefillRate  float64       // Tokens per second for details (default: 5)
	DetailsMinInterval time.Duration // Minimum time between details requests (default: 50ms)
}

// DefaultRateLimiterConfig returns sensible defaults for the Maps Platform
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		// Search: 5 burst, 2/sec refill, 100ms min interval
		MaxTokens:   5,
		RefillRate:  2,
		MinInterval: 100 * time.Millisecond,

		// Details: 10 burst, 5/sec refill, 50ms min interval
		// A full nearby page fans out into 20 details calls
		DetailsMaxTokens:   10,
		DetailsRefillRate:  5,
		DetailsMinInterval: 50 * time.Millisecond,
	}
}

// NewRateLimiter creates a new rate limiter with the given config
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	now := time.Now()
	return &RateLimiter{
		tokens:                config.MaxTokens,
		maxTokens:             config.MaxTokens,
		refillRate:            config.RefillRate,
		lastRefillTime:        now,
		minInterval:           config.MinInterval,
		detailsTokens:         config.DetailsMaxTokens,
		detailsMaxTokens:      config.DetailsMaxTokens,
		detailsRefillRate:     config.DetailsRefillRate,
		detailsLastRefillTime: now,
		detailsMinInterval:    config.DetailsMinInterval,
	}
}

// Wait blocks until a token is available for a search request
// Returns an error if the context is cancelled
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.waitForToken(ctx, false)
}

// WaitDetails blocks until a token is available for a place details request
func (r *RateLimiter) WaitDetails(ctx context.Context) error {
	return r.waitForToken(ctx, true)
}

func (r *RateLimiter) waitForToken(ctx context.Context, isDetails bool) error {
	for {
		r.mu.Lock()
		r.refillTokens()

		var tokens *float64
		var minInterval time.Duration

		if isDetails {
			tokens = &r.detailsTokens
			minInterval = r.detailsMinInterval
		} else {
			tokens = &r.tokens
			minInterval = r.minInterval
		}

		if *tokens >= 1 {
			*tokens--
			r.mu.Unlock()

			// Enforce minimum interval between requests
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(minInterval):
				return nil
			}
		}

		// Calculate wait time for next token
		var refillRate float64
		if isDetails {
			refillRate = r.detailsRefillRate
		} else {
			refillRate = r.refillRate
		}
		waitTime := time.Duration(float64(time.Second) / refillRate)
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			// Try again after waiting
		}
	}
}

// refillTokens adds tokens based on elapsed time (must be called with lock held)
func (r *RateLimiter) refillTokens() {
	now := time.Now()

	// Refill search tokens
	elapsed := now.Sub(r.lastRefillTime).Seconds()
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}
	r.lastRefillTime = now

	// Refill details tokens
	detailsElapsed := now.Sub(r.detailsLastRefillTime).Seconds()
	r.detailsTokens += detailsElapsed * r.detailsRefillRate
	if r.detailsTokens > r.detailsMaxTokens {
		r.detailsTokens = r.detailsMaxTokens
	}
	r.detailsLastRefillTime = now
}

// TryAcquire attempts to acquire a token without blocking
// Returns true if a token was acquired, false otherwise
func (r *RateLimiter) TryAcquire(isDetails bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillTokens()

	var tokens *float64
	if isDetails {
		tokens = &r.detailsTokens
	} else {
		tokens = &r.tokens
	}

	if *tokens >= 1 {
		*tokens--
		return true
	}
	return false
}

// AvailableTokens returns the current number of available tokens
func (r *RateLimiter) AvailableTokens(isDetails bool) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillTokens()

	if isDetails {
		return r.detailsTokens
	}
	return r.tokens
}

// SetBackoffMultiplier temporarily reduces the rate limit
// Useful after an OVER_QUERY_LIMIT error, call with multiplier > 1 to slow down
func (r *RateLimiter) SetBackoffMultiplier(multiplier float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillRate = r.refillRate / multiplier
	r.detailsRefillRate = r.detailsRefillRate / multiplier
	r.minInterval = time.Duration(float64(r.minInterval) * multiplier)
	r.detailsMinInterval = time.Duration(float64(r.detailsMinInterval) * multiplier)
}
