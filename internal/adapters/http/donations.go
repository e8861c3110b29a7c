package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

type donationBody struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    *string `json:"category"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     *string `json:"address"`
	ImageURL    *string `json:"image_url"`
	ExpiryDate  *string `json:"expiry_date"`
}

// ListDonationsHandler lists donations filtered by status, owner or claimer.
func ListDonationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c)
		items, err := deps.Donations.List(c.UserContext(), ports.DonationFilter{
			Status:    domain.DonationStatus(c.Query("status")),
			UserID:    c.Query("user_id"),
			ClaimedBy: c.Query("claimed_by"),
			Offset:    offset,
			Limit:     limit + 1,
		})
		if err != nil {
			return respondError(c, err)
		}

		items, pg := page(items, offset, limit)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}

// NearbyDonationsHandler returns available donations around a point, closest first.
func NearbyDonationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)

		items, err := deps.Donations.Nearby(c.UserContext(), lat, lon,
			c.QueryFloat("radius_km", 0), c.QueryInt("limit", 0))
		if err != nil {
			return respondError(c, err)
		}

		c.Set("Cache-Control", "public, max-age=30")
		return c.JSON(items)
	}
}

// GetDonationHandler returns one donation.
func GetDonationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := deps.Donations.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	}
}

// CreateDonationHandler posts a donation owned by the caller.
func CreateDonationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body donationBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		d := &domain.Donation{
			UserID:      currentUser(c),
			Title:       body.Title,
			Description: body.Description,
			Category:    body.Category,
			Latitude:    body.Latitude,
			Longitude:   body.Longitude,
			Address:     body.Address,
			ImageURL:    body.ImageURL,
			ExpiryDate:  body.ExpiryDate,
		}
		if err := deps.Donations.Create(c.UserContext(), d); err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

// ClaimDonationHandler reserves an available donation for the caller.
func ClaimDonationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := deps.Donations.Claim(c.UserContext(), c.Params("id"), currentUser(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	}
}

// CompleteDonationHandler marks a donation as handed over.
func CompleteDonationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := deps.Donations.Complete(c.UserContext(), c.Params("id"), currentUser(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(d)
	}
}

// DeleteDonationHandler removes one of the caller's donations.
func DeleteDonationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Donations.Delete(c.UserContext(), c.Params("id"), currentUser(c)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadDonationImageHandler stores a multipart "file" and returns its public
// URL. With donation_id set, the donation's image_url is updated too.
func UploadDonationImageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return errBadRequest(c, "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return errBadRequest(c, "unreadable file")
		}
		defer f.Close()

		url, err := deps.Donations.UploadImage(c.UserContext(), usecases.ImageUpload{
			UserID:      currentUser(c),
			DonationID:  c.FormValue("donation_id"),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        int(fh.Size),
			Body:        f,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	}
}
