package http

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ipsync/internal/config"
	"ipsync/internal/jobs"
	"ipsync/internal/log"
	"ipsync/internal/metrics"
	"ipsync/internal/services"
)

type Server struct {
	app    *fiber.App
	config *config.Config
	redis  *redis.Client
	logger *slog.Logger
}

func NewServer(cfg *config.Config, orch *jobs.Orchestrator, dnsSync services.DNSSync, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	// Inject config and services into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("orchestrator", orch)
		c.Locals("dnsSync", dnsSync)
		return c.Next()
	})

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists. Header values live in a buffer fasthttp
		// reuses; the ID outlives the request through the run context.
		reqID := utils.CopyString(c.Get("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		c.Set("X-Request-Id", reqID)
		c.SetUserContext(log.ContextAttrs(c.UserContext(), slog.String("request_id", reqID)))
		if logger != nil {
			c.Locals("logger", logger)
		}

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			// the error handler sets the final status after this returns
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		// copies: both are kept as metric keys after the request ends
		method := utils.CopyString(c.Method())
		path := utils.CopyString(c.Path())

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if logger != nil {
			logger.InfoContext(c.UserContext(), "request",
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	// Redis client for rate limiting and health checks
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			rdb = redis.NewClient(opt)
		} else if logger != nil {
			logger.Warn("redis_url_invalid", "error", err)
		}
	}

	app.Get("/healthz", healthzHandler(cfg, rdb))

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	var rateMw fiber.Handler
	if rdb != nil {
		rateMw = rateLimitMiddleware(cfg, rdb)
	} else {
		rateMw = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api")
	registerAPIRoutes(api, rateMw)

	registerWebUIRoutes(app, cfg.Assets.Dir, logger)

	return &Server{
		app:    app,
		config: cfg,
		redis:  rdb,
		logger: logger,
	}
}

func (s *Server) Listen() error {
	return s.app.Listen(s.config.Server.Addr())
}

// Shutdown stops accepting connections and waits for open requests until
// ctx is done. Background speed-test runs are not affected.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return err
}

func registerAPIRoutes(group fiber.Router, rateMw fiber.Handler) {
	group.Get("/server/health_check", healthCheckHandler)

	group.Post("/ip/select", rateMw, ipSelectHandler)
	group.Get("/ip/select", ipSelectedHandler)
	group.Get("/ip/select/status", ipSelectStatusHandler)

	group.Post("/dns/sync", rateMw, dnsSyncHandler)
}
