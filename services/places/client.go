package places

import (
	"context"
	"strings"
	"time"

	"github.com/leadscout/leadscout/utils/cache"
	"googlemaps.github.io/maps"
)

const (
	// GeocodeCacheTTL is how long resolved coordinates stay cached.
	// Street-level geocodes are effectively immutable, 24h keeps quota low.
	GeocodeCacheTTL = 24 * time.Hour
	// DetailsCacheTTL is how long place details stay cached.
	// Review counts and websites change, so this is shorter than geocoding.
	DetailsCacheTTL = 6 * time.Hour
	// pageTokenDelay is how long a next_page_token takes to become valid
	// on Google's side before the follow-up request succeeds.
	pageTokenDelay = 2 * time.Second
)

// Client handles all Google Maps Platform interactions
type Client struct {
	maps        *maps.Client
	cache       *cache.RedisCache
	retryConfig RetryConfig
	rateLimiter *RateLimiter
}

// Config holds configuration for the places client
type Config struct {
	APIKey            string
	Cache             *cache.RedisCache  // Optional, nil disables caching
	RetryConfig       *RetryConfig       // Optional custom retry config
	RateLimiterConfig *RateLimiterConfig // Optional rate limiter config
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	MaxRetries     int           // Maximum number of retry attempts (default: 2)
	InitialBackoff time.Duration // Initial backoff duration (default: 500ms)
	MaxBackoff     time.Duration // Maximum backoff duration (default: 30s)
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
	}
}

// NewClient creates a new places client
func NewClient(config Config) (*Client, error) {
	mapsClient, err := maps.NewClient(maps.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, err
	}

	retryConfig := DefaultRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}

	rateLimiterConfig := DefaultRateLimiterConfig()
	if config.RateLimiterConfig != nil {
		rateLimiterConfig = *config.RateLimiterConfig
	}

	return &Client{
		maps:        mapsClient,
		cache:       config.Cache,
		retryConfig: retryConfig,
		rateLimiter: NewRateLimiter(rateLimiterConfig),
	}, nil
}

// IsRetryableError checks if a Maps API error should trigger a retry.
// OVER_QUERY_LIMIT means quota exhaustion or QPS spikes, UNKNOWN_ERROR is
// Google's documented transient server failure.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "OVER_QUERY_LIMIT") ||
		strings.Contains(msg, "UNKNOWN_ERROR") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

// CalculateBackoff returns the backoff duration for a given retry attempt
// Uses exponential backoff: initialBackoff * 2^attempt, capped at maxBackoff
func CalculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := config.InitialBackoff * time.Duration(1<<uint(attempt))
	if backoff > config.MaxBackoff {
		return config.MaxBackoff
	}
	return backoff
}

// withRetry runs fn with the client's retry policy. Quota errors slow the
// rate limiter down for subsequent requests on top of the backoff wait.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := CalculateBackoff(attempt-1, c.retryConfig)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryableError(lastErr) {
			return lastErr
		}
		if strings.Contains(lastErr.Error(), "OVER_QUERY_LIMIT") {
			c.rateLimiter.SetBackoffMultiplier(2.0)
		}
	}
	return lastErr
}
