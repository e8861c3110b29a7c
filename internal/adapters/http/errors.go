package http

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/pkg/aigateway"
)

// APIError is a structured error response. Error repeats Message under the
// key older clients read.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // bad_request, not_found, upstream_error, ...
	Message   string `json:"message"` // human-readable
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID := RequestIDFromCtx(c.UserContext())
	if reqID == "" {
		reqID, _ = c.Locals("requestid").(string)
	}
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		Error:     message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, 401, "unauthorized", msg)
}

func errForbidden(c *fiber.Ctx, msg string) error {
	return newError(c, 403, "forbidden", msg)
}

func errConflict(c *fiber.Ctx, msg string) error {
	return newError(c, 409, "conflict", msg)
}

// respondError maps a service error to its HTTP response. Model and
// upstream failures keep the status the remote side answered with.
func respondError(c *fiber.Ctx, err error) error {
	var (
		gwErr       *aigateway.Error
		upstreamErr *domain.UpstreamError
	)
	switch {
	case errors.As(err, &gwErr):
		return newError(c, gwErr.Status, "upstream_error", gwErr.Message)
	case errors.As(err, &upstreamErr):
		status := upstreamErr.Status
		if status < 400 {
			status = fiber.StatusBadGateway
		}
		msg := upstreamErr.Detail
		if msg == "" {
			msg = upstreamErr.Error()
		}
		return newError(c, status, "upstream_error", msg)
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, detail(err, domain.ErrInvalidInput))
	case errors.Is(err, domain.ErrInsufficientRewards):
		return newError(c, 400, "insufficient_rewards", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return errNotFound(c, "resource not found")
	case errors.Is(err, domain.ErrForbidden):
		return errForbidden(c, "you do not own this resource")
	case errors.Is(err, domain.ErrNotAvailable):
		return errConflict(c, domain.ErrNotAvailable.Error())
	case errors.Is(err, domain.ErrConflict):
		return errConflict(c, detail(err, domain.ErrConflict))
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusGatewayTimeout, "timeout", "request timed out")
	}

	slog.ErrorContext(c.UserContext(), "request failed", "path", c.Path(), "error", err)
	return errInternal(c, "An unexpected error occurred")
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != msg {
		return trimmed
	}
	return msg
}
