package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

// GetProfileHandler returns a public profile.
func GetProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := deps.Profiles.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// ProfileExistsHandler reports whether a profile has been created.
func ProfileExistsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := deps.Profiles.Exists(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"exists": ok})
	}
}

// SaveProfileHandler creates or updates the caller's profile.
func SaveProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.ProfileInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		p, err := deps.Profiles.Save(c.UserContext(), currentUser(c), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	}
}

// UploadAvatarHandler replaces the caller's avatar with a multipart "file".
func UploadAvatarHandler(deps *Dependencies) fiber.Handler {
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

		url, err := deps.Profiles.UploadAvatar(c.UserContext(), currentUser(c),
			fh.Filename, fh.Header.Get(fiber.HeaderContentType), int(fh.Size), f)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"avatar_url": url})
	}
}

// DeleteAvatarHandler clears the caller's avatar.
func DeleteAvatarHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Profiles.DeleteAvatar(c.UserContext(), currentUser(c)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
