package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

type requestBody struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
}

type requestPatch struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Address     *string               `json:"address"`
	PhoneNumber *string               `json:"phone_number"`
	Status      *domain.RequestStatus `json:"status"`
}

// ListRequestsHandler lists requests filtered by status or owner.
func ListRequestsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c)
		items, err := deps.Requests.List(c.UserContext(), ports.RequestFilter{
			Status: domain.RequestStatus(c.Query("status")),
			UserID: c.Query("user_id"),
			Offset: offset,
			Limit:  limit + 1,
		})
		if err != nil {
			return respondError(c, err)
		}

		items, pg := page(items, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// RequestClustersHandler groups open requests into map pins.
func RequestClustersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groups, err := deps.Requests.Clusters(c.UserContext(), c.QueryFloat("radius_km", 0))
		if err != nil {
			return respondError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(groups)
	}
}

// GetRequestHandler returns one request.
func GetRequestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := deps.Requests.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(r)
	}
}

// CreateRequestHandler posts an open request owned by the caller.
func CreateRequestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body requestBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		r := &domain.Request{
			UserID:      currentUser(c),
			Title:       body.Title,
			Description: body.Description,
			Latitude:    body.Latitude,
			Longitude:   body.Longitude,
			Address:     body.Address,
			PhoneNumber: body.PhoneNumber,
		}
		if err := deps.Requests.Create(c.UserContext(), r); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// UpdateRequestHandler applies a partial update to one of the caller's requests.
func UpdateRequestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var patch requestPatch
		if err := c.BodyParser(&patch); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		r, err := deps.Requests.Update(c.UserContext(), c.Params("id"), currentUser(c), ports.RequestUpdate{
			Title:       patch.Title,
			Description: patch.Description,
			Address:     patch.Address,
			PhoneNumber: patch.PhoneNumber,
			Status:      patch.Status,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(r)
	}
}

// DeleteRequestHandler removes one of the caller's requests.
func DeleteRequestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Requests.Delete(c.UserContext(), c.Params("id"), currentUser(c)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
