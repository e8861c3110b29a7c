package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

const stripeSignatureHeader = "Stripe-Signature"

// CreateCheckoutHandler opens a hosted card checkout. A valid bearer token
// takes precedence over the userId in the body.
func CreateCheckoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in usecases.CheckoutInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if userID := optionalUser(c, deps.Tokens); userID != "" {
			in.UserID = userID
		}

		session, err := deps.Payments.CreateCheckout(c.UserContext(), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(session)
	}
}

// StripeWebhookHandler records completed checkouts reported by the payment
// provider. The body is verified byte for byte, so it is read raw.
func StripeWebhookHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := append([]byte(nil), c.Body()...)
		if err := deps.Payments.HandleWebhook(c.UserContext(), payload, c.Get(stripeSignatureHeader)); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"received": true})
	}
}
