package logging

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request ID in both directions.
const HeaderRequestID = "X-Request-ID"

type MiddlewareConfig struct {
	// SkipPaths are served but not logged.
	SkipPaths []string

	// AdditionalFields returns extra key/value pairs for the access log.
	AdditionalFields func(c *fiber.Ctx) []interface{}
}

// DefaultMiddlewareConfig keeps probes and scrapes out of the access log.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{SkipPaths: []string{"/health", "/metrics"}}
}

// FiberMiddleware assigns every request an ID (the client's X-Request-ID
// when sent), stores it and the logger in the user context, and writes one
// access log entry per request.
func FiberMiddleware(logger *Logger, cfg MiddlewareConfig) fiber.Handler {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		id := c.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.SetUserContext(WithLogger(WithRequestID(c.UserContext(), id), logger))

		err := c.Next()
		if _, ok := skip[c.Path()]; ok {
			return err
		}

		status := c.Response().StatusCode()
		kv := []interface{}{
			"method", c.Method(),
			"path", c.Path(),
			"ip", c.IP(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", id,
		}
		if cfg.AdditionalFields != nil {
			kv = append(kv, cfg.AdditionalFields(c)...)
		}

		switch {
		case err != nil:
			logger.Error("Request failed", append(kv, "error", err)...)
		case status >= fiber.StatusInternalServerError:
			logger.Error("Server error", kv...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("Client error", kv...)
		default:
			logger.Info("Request completed", kv...)
		}
		return err
	}
}
