package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

// Refunder returns points to a user.
type Refunder interface {
	Refund(ctx context.Context, userID string, points int) (int, error)
}

// RedemptionActivities implements the activities of GiftCardRedemptionWorkflow.
type RedemptionActivities struct {
	Redemptions ports.RedemptionRepository
	Rewards     Refunder
	Notifier    ports.NotificationService
}

// IssueGiftCardCode generates a code and attaches it to the redemption.
func (a *RedemptionActivities) IssueGiftCardCode(ctx context.Context, redemptionID, brand string) (string, error) {
	code := NewGiftCardCode(brand)
	if err := a.Redemptions.SetCode(ctx, redemptionID, code); err != nil {
		return "", fmt.Errorf("set code for %s: %w", redemptionID, err)
	}
	return code, nil
}

// SendConfirmation pushes the code to the user.
func (a *RedemptionActivities) SendConfirmation(ctx context.Context, userID, brand, code string) error {
	if a.Notifier == nil {
		slog.InfoContext(ctx, "push skipped, no notifier", "user_id", userID, "brand", brand)
		return nil
	}
	title := "Your gift card is ready"
	body := fmt.Sprintf("Your %s gift card code is %s. Thanks for sharing food with your neighbors!", brandTitle(brand), code)
	return a.Notifier.SendPush(ctx, userID, title, body)
}

// RefundPoints is the compensation for a redemption that could not complete.
func (a *RedemptionActivities) RefundPoints(ctx context.Context, userID string, points int) error {
	balance, err := a.Rewards.Refund(ctx, userID, points)
	if err != nil {
		return fmt.Errorf("refund %d points to %s: %w", points, userID, err)
	}
	slog.InfoContext(ctx, "redemption refunded", "user_id", userID, "points", points, "balance", balance)
	return nil
}

func (a *RedemptionActivities) VoidRedemption(ctx context.Context, redemptionID string) error {
	if err := a.Redemptions.Delete(ctx, redemptionID); err != nil {
		return fmt.Errorf("void redemption %s: %w", redemptionID, err)
	}
	return nil
}

// NewGiftCardCode returns a code like "TARGET-1A2B-3C4D-5E6F".
func NewGiftCardCode(brand string) string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s-%s-%s", strings.ToUpper(brand), hex[0:4], hex[4:8], hex[8:12])
}

func brandTitle(brand string) string {
	if brand == "" {
		return brand
	}
	return strings.ToUpper(brand[:1]) + brand[1:]
}
