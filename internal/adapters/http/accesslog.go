package http

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// AccessLogMiddleware writes one "http.request" record per request. The
// record carries the route pattern, the caller and the request id when known.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		// The app error handler has not run yet for a returned error.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		ctx := c.UserContext()
		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("route", c.Route().Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
		}
		// Requests rejected before RequireAuth or the request context
		// middleware still get identified.
		if RequestIDFromCtx(ctx) == "" {
			if rid, _ := c.Locals("requestid").(string); rid != "" {
				attrs = append(attrs, slog.String("request_id", rid))
			}
		}
		if UserIDFromCtx(ctx) == "" {
			if uid := currentUser(c); uid != "" {
				attrs = append(attrs, slog.String("user_id", uid))
			}
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		slog.LogAttrs(ctx, level, "http.request", attrs...)
		return err
	}
}
