package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/marcdasilva/passtheplate/internal/pkg/logging"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	userIDKey
)

// RequestContextMiddleware moves the id assigned by the requestid middleware
// into the request context. Service and repository logs written with
// slog.*Context then carry request_id.
func RequestContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals("requestid").(string)
		if rid == "" {
			return c.Next()
		}
		ctx := context.WithValue(c.UserContext(), requestIDKey, rid)
		c.SetUserContext(logging.WithAttrs(ctx, slog.String("request_id", rid)))
		return c.Next()
	}
}

// setUser records an authenticated caller in Locals and in the request
// context, so later logs carry user_id.
func setUser(c *fiber.Ctx, userID string) {
	c.Locals(userIDLocal, userID)
	ctx := context.WithValue(c.UserContext(), userIDKey, userID)
	c.SetUserContext(logging.WithAttrs(ctx, slog.String("user_id", userID)))
}

// RequestIDFromCtx returns the request id, or "" outside a request.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// UserIDFromCtx returns the authenticated caller, or "".
func UserIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
