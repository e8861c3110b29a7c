package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on endpoint.
// Handlers that set their own header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics" || path == "/ws":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/profiles"):
			ttl = "private, max-age=0" // rewards change on every completion

		case strings.HasPrefix(path, "/v1/donations"), strings.HasPrefix(path, "/v1/requests"):
			ttl = "public, max-age=15" // claims must show up quickly

		case strings.HasPrefix(path, "/v1/predictions"):
			ttl = "public, max-age=60"

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
