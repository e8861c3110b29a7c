package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

// DescribeImageHandler proposes listing fields for a donation photo.
func DescribeImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			ImageBase64 string `json:"imageBase64"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if body.ImageBase64 == "" {
			return errBadRequest(c, "Image data is required")
		}

		out, err := deps.AI.DescribeImage(c.UserContext(), body.ImageBase64)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}

// EstimateValueHandler returns a conservative dollar value for an item.
func EstimateValueHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.ItemInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		out, err := deps.AI.EstimateValue(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}

// ModerateHandler decides whether a posting may be published.
func ModerateHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.ItemInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		out, err := deps.AI.Moderate(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}

// EstimateStatisticsHandler projects impact figures from request descriptions.
func EstimateStatisticsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Descriptions []string `json:"descriptions"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		out, err := deps.AI.EstimateStatistics(c.UserContext(), body.Descriptions)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	}
}
