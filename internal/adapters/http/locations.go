package http

import (
	"github.com/gofiber/fiber/v2"
)

// NameLocationHandler resolves a coordinate pair to a place name.
func NameLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		}
		if err := c.BodyParser(&body); err != nil || body.Latitude == nil || body.Longitude == nil {
			return errBadRequest(c, "Latitude and longitude must be numbers")
		}

		name, cached, err := deps.Locations.Name(c.UserContext(), *body.Latitude, *body.Longitude)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"location_name": name, "cached": cached})
	}
}

// ConnectionsHandler returns monetary donations with both ends named.
func ConnectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conns, err := deps.Connections.List(c.UserContext(), c.QueryInt("limit", 0))
		if err != nil {
			return respondError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(conns)
	}
}
