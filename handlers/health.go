package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadscout/leadscout/database"
	"github.com/leadscout/leadscout/utils/cache"
)

const apiVersion = "1.0.0"

var startedAt = time.Now()

// HandleCheckHealth reports service liveness and database reachability.
// Returns 503 when the database ping fails so load balancers can rotate
// the instance out.
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	status := "ok"
	dbStatus := "ok"
	code := fiber.StatusOK

	if err := store.HealthCheck(); err != nil {
		status = "degraded"
		dbStatus = "unreachable"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleDetailedHealth extends the liveness check with Redis reachability,
// process uptime and the API version. Redis being down degrades the report
// but does not flip the status code; only a failed database ping does.
func HandleDetailedHealth(store database.Storage, redisCache *cache.RedisCache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		dbStatus := "ok"
		code := fiber.StatusOK

		if err := store.HealthCheck(); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
			code = fiber.StatusServiceUnavailable
		}

		redisStatus := "not_configured"
		if redisCache != nil {
			redisStatus = "ok"
			if err := redisCache.Ping(c.Context()); err != nil {
				status = "degraded"
				redisStatus = "unreachable"
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"status":         status,
			"database":       dbStatus,
			"redis":          redisStatus,
			"uptime_seconds": int64(time.Since(startedAt).Seconds()),
			"version":        apiVersion,
			"timestamp":      time.Now().UTC().Format(time.RFC3339),
		})
	}
}
