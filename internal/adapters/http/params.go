package http

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/stellarcanvas/internal/core/domain"
	"github.com/samirrijal/stellarcanvas/internal/pkg/angle"
)

// requiredFloat parses a mandatory query parameter. NaN and ±Inf are
// accepted here; the coordinate pipeline sanitizes them.
func requiredFloat(c *fiber.Ctx, name string) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}

// optionalFloat parses an optional query parameter; unparseable values are unset.
func optionalFloat(c *fiber.Ctx, name string) domain.OptionalFloat {
	raw := c.Query(name)
	if raw == "" {
		return domain.OptionalFloat{}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.OptionalFloat{}
	}
	return domain.Float(v)
}

// convention reads a longitude convention such as "east-180". Missing means canonical.
func convention(c *fiber.Ctx, name string) (angle.Convention, error) {
	raw := c.Query(name)
	if raw == "" {
		return angle.Canonical, nil
	}
	return angle.ParseConvention(raw)
}

// pathParam returns a URL-decoded route parameter.
func pathParam(c *fiber.Ctx, name string) string {
	raw := c.Params(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// clampLimit returns the limit query parameter bounded to [1, max].
func clampLimit(c *fiber.Ctx, def, max int) int {
	limit := c.QueryInt("limit", def)
	if limit <= 0 || limit > max {
		return def
	}
	return limit
}
