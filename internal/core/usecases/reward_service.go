package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const undoTimeout = 5 * time.Second

// RewardService manages reward points and gift card redemptions.
type RewardService struct {
	profiles         ports.ProfileRepository
	redemptions      ports.RedemptionRepository
	starter          ports.RedemptionStarter
	events           ports.EventPublisher
	redeemCost       int
	completionPoints int
	now              func() time.Time
}

// NewRewardService creates a new RewardService. events may be nil.
func NewRewardService(
	profiles ports.ProfileRepository,
	redemptions ports.RedemptionRepository,
	starter ports.RedemptionStarter,
	events ports.EventPublisher,
	redeemCost, completionPoints int,
) *RewardService {
	return &RewardService{
		profiles:         profiles,
		redemptions:      redemptions,
		starter:          starter,
		events:           events,
		redeemCost:       redeemCost,
		completionPoints: completionPoints,
		now:              time.Now,
	}
}

// RedeemGiftCard debits the redeem cost and hands the redemption to
// fulfilment. Points are returned if fulfilment cannot be started.
func (s *RewardService) RedeemGiftCard(ctx context.Context, userID, giftCardType string) (*domain.Redemption, error) {
	if strings.TrimSpace(giftCardType) == "" {
		return nil, fmt.Errorf("%w: Gift card type is required", domain.ErrInvalidInput)
	}
	brand, ok := domain.ParseGiftCardBrand(giftCardType)
	if !ok {
		return nil, fmt.Errorf("%w: Invalid gift card type", domain.ErrInvalidInput)
	}

	balance, err := s.profiles.DebitRewards(ctx, userID, s.redeemCost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientRewards) {
			return nil, fmt.Errorf("%w: need %d points", domain.ErrInsufficientRewards, s.redeemCost)
		}
		return nil, err
	}

	r := &domain.Redemption{
		UserID:            userID,
		Brand:             brand,
		Cost:              s.redeemCost,
		NewRewardsBalance: balance,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.redemptions.Create(ctx, r); err != nil {
		s.refund(ctx, userID)
		return nil, fmt.Errorf("record redemption: %w", err)
	}
	if err := s.starter.StartRedemption(ctx, r); err != nil {
		s.refund(ctx, userID)
		undoCtx, cancel := undoContext(ctx)
		defer cancel()
		if delErr := s.redemptions.Delete(undoCtx, r.ID); delErr != nil {
			slog.ErrorContext(ctx, "delete unstarted redemption", "redemption_id", r.ID, "error", delErr)
		}
		return nil, fmt.Errorf("start redemption: %w", err)
	}

	metrics.GiftCardsRedeemed.WithLabelValues(string(brand)).Inc()
	if s.events != nil {
		if err := s.events.PublishRedemption(ctx, r); err != nil {
			slog.WarnContext(ctx, "publish redemption", "redemption_id", r.ID, "error", err)
		}
	}
	return r, nil
}

// Refund returns the redeem cost of a failed redemption to its user.
func (s *RewardService) Refund(ctx context.Context, userID string, points int) (int, error) {
	return s.profiles.AddRewards(ctx, userID, points)
}

// AwardCompletion credits the donor of a completed donation. Events for
// other statuses and repeated events are ignored.
func (s *RewardService) AwardCompletion(ctx context.Context, ev *domain.DonationEvent) error {
	if ev.Status != domain.DonationCompleted || s.completionPoints <= 0 {
		return nil
	}
	awarded, err := s.profiles.AwardForDonation(ctx, ev.DonationID, ev.DonorID, s.completionPoints)
	if err != nil {
		return fmt.Errorf("award donation %s: %w", ev.DonationID, err)
	}
	if awarded {
		slog.InfoContext(ctx, "completion points awarded",
			"donation_id", ev.DonationID, "donor_id", ev.DonorID, "points", s.completionPoints)
	}
	return nil
}

// undoContext detaches compensation from the request: a cancelled or timed
// out request must still get its points back.
func undoContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), undoTimeout)
}

func (s *RewardService) refund(ctx context.Context, userID string) {
	undoCtx, cancel := undoContext(ctx)
	defer cancel()
	if _, err := s.profiles.AddRewards(undoCtx, userID, s.redeemCost); err != nil {
		slog.ErrorContext(ctx, "refund reward points", "user_id", userID, "points", s.redeemCost, "error", err)
	}
}
