package http

import (
	"github.com/gofiber/fiber/v2"
)

// HighestNeedHandler returns the ML service's current highest-need location.
func HighestNeedHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Predictions.HighestNeed(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(p)
	}
}

// ListPredictionsHandler returns stored predictions, newest first.
func ListPredictionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		preds, err := deps.Predictions.List(c.UserContext(), c.QueryInt("limit", 0))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(preds)
	}
}
