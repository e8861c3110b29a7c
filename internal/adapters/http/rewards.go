package http

import (
	"github.com/gofiber/fiber/v2"
)

// RedeemGiftCardHandler spends the caller's points on a gift card. The code
// is delivered asynchronously once issued.
func RedeemGiftCardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			GiftCardType string `json:"giftCardType"`
		}
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		r, err := deps.Rewards.RedeemGiftCard(c.UserContext(), currentUser(c), body.GiftCardType)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"success":           true,
			"message":           "Gift card redeemed successfully",
			"newRewardsBalance": r.NewRewardsBalance,
			"redemption_id":     r.ID,
		})
	}
}
