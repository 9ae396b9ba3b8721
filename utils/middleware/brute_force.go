package middleware

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/utils/cache"
	"github.com/leadscout/leadscout/utils/response"
)

// attemptWindow is how long failed attempts accumulate before the
// counter expires on its own.
const attemptWindow = 15 * time.Minute

// lockoutSteps maps failed-attempt counts to progressively longer
// lockouts. Checked top down, first match wins.
var lockoutSteps = []struct {
	attempts int64
	duration time.Duration
}{
	{25, 24 * time.Hour},
	{10, 1 * time.Hour},
	{5, 2 * time.Minute},
}

// BruteForceProtection throttles repeated failed logins per client IP,
// with counters and locks kept in Redis.
type BruteForceProtection struct {
	redis *cache.RedisCache
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(redisCache *cache.RedisCache) *BruteForceProtection {
	return &BruteForceProtection{redis: redisCache}
}

func attemptsKey(ip string) string {
	return fmt.Sprintf("brute_force:attempts:%s", ip)
}

func lockKey(ip string) string {
	return fmt.Sprintf("brute_force:lock:%s", ip)
}

// CheckAndRecordAttempt rejects requests from IPs that are currently
// locked out. Mounted in front of the login handler.
func (b *BruteForceProtection) CheckAndRecordAttempt() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()

		locked, err := b.redis.Exists(c.Context(), lockKey(ip))
		if err != nil {
			// Redis outage fails open; the password check still stands
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		ttl, _ := b.redis.TTL(c.Context(), lockKey(ip))
		retryAfter := int(ttl.Seconds())
		if retryAfter <= 0 {
			retryAfter = 60
		}

		c.Set("Retry-After", strconv.Itoa(retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// RecordFailedAttempt bumps the failure counter for the IP and applies
// a lockout once the count crosses a step threshold.
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx, ip, email string) error {
	ctx := c.Context()

	attempts, err := b.redis.Increment(ctx, attemptsKey(ip))
	if err != nil {
		return nil
	}
	if attempts == 1 {
		b.redis.Expire(ctx, attemptsKey(ip), attemptWindow)
	}

	for _, step := range lockoutSteps {
		if attempts >= step.attempts {
			log.Printf("Locking out %s for %s after %d failed logins (last target: %s)", ip, step.duration, attempts, email)
			return b.redis.Set(ctx, lockKey(ip), "locked", step.duration)
		}
	}
	return nil
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx, ip string) error {
	ctx := c.Context()
	b.redis.Delete(ctx, attemptsKey(ip))
	b.redis.Delete(ctx, lockKey(ip))
	return nil
}
