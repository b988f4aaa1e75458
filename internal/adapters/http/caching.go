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
		if c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "public, max-age=10"

		case path == "/metrics":
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/corrections"):
			// Corrections change at runtime and must be visible at once.
			ttl = "no-cache"

		case strings.HasPrefix(path, "/v1/bodies/") && (strings.Contains(path, "/features") || strings.HasSuffix(path, "/nearest")):
			ttl = "public, max-age=300"

		case strings.HasPrefix(path, "/v1/bodies"), strings.HasPrefix(path, "/v1/viewer"),
			path == "/v1/datasets" || strings.Count(path, "/") == 3 && strings.HasPrefix(path, "/v1/datasets/"):
			// Catalog data only changes on restart.
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/datasets/"):
			// Projection results depend on corrections.
			ttl = "public, max-age=30"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
