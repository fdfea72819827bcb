package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"ipsync/internal/config"
	"ipsync/internal/jobs"
)

func healthCheckHandler(c *fiber.Ctx) error {
	return success(c)
}

func healthzHandler(cfg *config.Config, rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Shallow health: process is up
		if c.Query("deep") != "true" {
			return c.JSON(HealthResponse{Status: "ok"})
		}

		// Deep health: check Redis connectivity and that the speed-test
		// binary resolves.
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		redisStatus := "disabled"
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		speedTestStatus := "ok"
		if _, err := jobs.NewSpeedTest(cfg.SpeedTest, nil).LookPath(); err != nil {
			speedTestStatus = "missing"
		}

		status := "ok"
		if redisStatus == "error" || speedTestStatus != "ok" {
			status = "error"
		}

		return c.JSON(HealthResponse{
			Status:    status,
			Redis:     redisStatus,
			SpeedTest: speedTestStatus,
		})
	}
}
