package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const (
	minDonationUSD = 1
	maxDonationUSD = 10
)

// CheckoutFlow selects the redirect pages of a checkout.
type CheckoutFlow string

const (
	FlowDonation CheckoutFlow = "donation"
	FlowTip      CheckoutFlow = "tip"
)

// CheckoutInput is a client's request to pay.
type CheckoutInput struct {
	Amount        float64      `json:"amount"`
	UserID        string       `json:"userId"`
	FromLatitude  *float64     `json:"fromLatitude"`
	FromLongitude *float64     `json:"fromLongitude"`
	ToLatitude    *float64     `json:"toLatitude"`
	ToLongitude   *float64     `json:"toLongitude"`
	Flow          CheckoutFlow `json:"flow"`
}

// PaymentService creates card checkouts and records completed ones.
type PaymentService struct {
	provider      ports.PaymentProvider
	donations     ports.MonetaryDonationRepository
	events        ports.EventPublisher
	publicBaseURL string
}

// NewPaymentService creates a new PaymentService. events may be nil.
func NewPaymentService(provider ports.PaymentProvider, donations ports.MonetaryDonationRepository, events ports.EventPublisher, publicBaseURL string) *PaymentService {
	return &PaymentService{
		provider:      provider,
		donations:     donations,
		events:        events,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// CreateCheckout opens a hosted checkout for $1 to $10.
func (s *PaymentService) CreateCheckout(ctx context.Context, in CheckoutInput) (*ports.CheckoutSession, error) {
	if in.Amount == 0 || in.UserID == "" ||
		in.FromLatitude == nil || in.FromLongitude == nil ||
		in.ToLatitude == nil || in.ToLongitude == nil {
		return nil, fmt.Errorf("%w: Missing required fields", domain.ErrInvalidInput)
	}
	if in.Amount < minDonationUSD || in.Amount > maxDonationUSD {
		return nil, fmt.Errorf("%w: Amount must be between $1 and $10", domain.ErrInvalidInput)
	}
	if err := validateCoordinates(*in.FromLatitude, *in.FromLongitude); err != nil {
		return nil, err
	}
	if err := validateCoordinates(*in.ToLatitude, *in.ToLongitude); err != nil {
		return nil, err
	}

	flow := in.Flow
	if flow == "" {
		flow = FlowDonation
	}
	if flow != FlowDonation && flow != FlowTip {
		return nil, fmt.Errorf("%w: unknown flow %q", domain.ErrInvalidInput, in.Flow)
	}

	description := "Supporting community donations through PassThePlate"
	if flow == FlowTip {
		description = "A tip for a PassThePlate donor"
	}

	return s.provider.CreateCheckout(ctx, ports.CheckoutRequest{
		AmountCents: int64(math.Round(in.Amount * 100)),
		UserID:      in.UserID,
		From:        domain.GeoPoint{Lat: *in.FromLatitude, Lon: *in.FromLongitude},
		To:          domain.GeoPoint{Lat: *in.ToLatitude, Lon: *in.ToLongitude},
		Description: description,
		SuccessURL:  fmt.Sprintf("%s/%s/success?session_id={CHECKOUT_SESSION_ID}", s.publicBaseURL, flow),
		CancelURL:   fmt.Sprintf("%s/%s/cancel", s.publicBaseURL, flow),
	})
}

// HandleWebhook verifies a provider callback and records a completed checkout.
// Redelivered callbacks for the same session are acknowledged without a
// second record.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: Missing signature or webhook secret", domain.ErrInvalidInput)
	}
	done, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: Webhook Error: %v", domain.ErrInvalidInput, err)
	}
	if done == nil {
		return nil
	}

	m := &domain.MonetaryDonation{
		UserID:        done.UserID,
		FromLatitude:  done.From.Lat,
		FromLongitude: done.From.Lon,
		ToLatitude:    done.To.Lat,
		ToLongitude:   done.To.Lon,
		Amount:        done.Amount,
		SessionID:     done.SessionID,
	}
	created, err := s.donations.Create(ctx, m)
	if err != nil {
		return fmt.Errorf("create monetary donation: %w", err)
	}
	if !created {
		slog.InfoContext(ctx, "checkout already recorded", "session_id", done.SessionID)
		return nil
	}

	metrics.MonetaryDonationAmount.Add(m.Amount)
	if s.events != nil {
		if err := s.events.PublishPayment(ctx, m); err != nil {
			slog.WarnContext(ctx, "publish payment event", "session_id", done.SessionID, "error", err)
		}
	}
	return nil
}
