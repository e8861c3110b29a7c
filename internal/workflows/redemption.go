// Package workflows holds the Temporal workflows that fulfil gift card
// redemptions.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Activity names registered by RedemptionActivities.
const (
	ActivityIssueCode        = "IssueGiftCardCode"
	ActivitySendConfirmation = "SendConfirmation"
	ActivityRefundPoints     = "RefundPoints"
	ActivityVoidRedemption   = "VoidRedemption"
)

// RedemptionInput is the input of GiftCardRedemptionWorkflow.
type RedemptionInput struct {
	RedemptionID string
	UserID       string
	Brand        string
	Cost         int
}

// GiftCardRedemptionWorkflow issues a code for an already debited redemption
// and tells the user about it. When the confirmation cannot be delivered the
// points are refunded and the redemption voided.
func GiftCardRedemptionWorkflow(ctx workflow.Context, input RedemptionInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting gift card redemption", "redemptionID", input.RedemptionID, "brand", input.Brand)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var code string
	if err := workflow.ExecuteActivity(ctx, ActivityIssueCode, input.RedemptionID, input.Brand).Get(ctx, &code); err != nil {
		logger.Warn("issuing code failed, compensating", "error", err)
		compensate(ctx, input)
		return err
	}

	err := workflow.ExecuteActivity(ctx, ActivitySendConfirmation, input.UserID, input.Brand, code).Get(ctx, nil)
	if err != nil {
		logger.Warn("confirmation failed, compensating", "error", err)
		compensate(ctx, input)
		return err
	}

	logger.Info("Gift card redeemed", "redemptionID", input.RedemptionID)
	return nil
}

// compensate returns the points before voiding the redemption so a failure
// to void never costs the user.
func compensate(ctx workflow.Context, input RedemptionInput) {
	logger := workflow.GetLogger(ctx)
	if err := workflow.ExecuteActivity(ctx, ActivityRefundPoints, input.UserID, input.Cost).Get(ctx, nil); err != nil {
		logger.Error("refund failed", "userID", input.UserID, "error", err)
	}
	if err := workflow.ExecuteActivity(ctx, ActivityVoidRedemption, input.RedemptionID).Get(ctx, nil); err != nil {
		logger.Error("void failed", "redemptionID", input.RedemptionID, "error", err)
	}
}
