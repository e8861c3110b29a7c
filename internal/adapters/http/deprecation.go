package http

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const httpDate = "Mon, 02 Jan 2006 15:04:05 GMT"

// DeprecatedRoute marks an endpoint as deprecated with sunset date.
type DeprecatedRoute struct {
	Path        string    // route pattern, ":name" segments match anything
	SunsetDate  time.Time // date when the endpoint will be removed
	Alternative string    // recommended replacement (optional)
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to deprecated endpoints.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, d := range deprecated {
			if !matchPattern(c.Path(), d.Path) {
				continue
			}

			// RFC 8594
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(httpDate))

			if d.Alternative != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}

			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
			break
		}

		return c.Next()
	}
}

// matchPattern reports whether path matches a route pattern segment by
// segment. "/v1/donations/:id" matches "/v1/donations/abc-123".
func matchPattern(path, pattern string) bool {
	if path == pattern {
		return true
	}

	ps := strings.Split(strings.Trim(path, "/"), "/")
	qs := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(ps) != len(qs) {
		return false
	}
	for i, q := range qs {
		if strings.HasPrefix(q, ":") {
			if ps[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != q {
			return false
		}
	}
	return true
}
