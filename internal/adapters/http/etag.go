package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ETagMiddleware tags successful GET responses with a weak ETag over the body
// and answers 304 when If-None-Match already names it. Handlers that set their
// own ETag keep it; no-store responses are left untagged.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		if strings.Contains(c.GetRespHeader(fiber.HeaderCacheControl), "no-store") {
			return nil
		}

		etag := c.GetRespHeader(fiber.HeaderETag)
		if etag == "" {
			body := c.Response().Body()
			if len(body) == 0 {
				return nil
			}
			sum := sha256.Sum256(body)
			etag = `W/"` + hex.EncodeToString(sum[:8]) + `"`
			c.Set(fiber.HeaderETag, etag)
		}

		if etagMatches(c.Get(fiber.HeaderIfNoneMatch), etag) {
			c.Status(fiber.StatusNotModified)
			c.Response().ResetBody()
		}
		return nil
	}
}

// etagMatches applies the weak comparison If-None-Match uses: "*" matches
// anything and W/ prefixes are ignored on both sides.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == want {
			return true
		}
	}
	return false
}
