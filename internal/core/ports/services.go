package ports

import (
	"context"
	"errors"
	"io"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/pkg/aigateway"
)

// Model is a generative model reachable through an endpoint fallback chain.
type Model interface {
	Invoke(ctx context.Context, parts []aigateway.Part) (string, error)
}

// PredictionSource fetches the current highest-need location.
type PredictionSource interface {
	HighestNeed(ctx context.Context) (*domain.MLPrediction, error)
}

// CheckoutRequest describes a hosted card payment.
type CheckoutRequest struct {
	AmountCents int64
	UserID      string
	From        domain.GeoPoint
	To          domain.GeoPoint
	Description string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the created hosted payment page.
type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

// CompletedCheckout is the verified payload of a finished checkout.
type CompletedCheckout struct {
	SessionID string
	UserID    string
	From      domain.GeoPoint
	To        domain.GeoPoint
	Amount    float64
}

// PaymentProvider creates checkout sessions and verifies webhooks. ParseWebhook
// returns a nil CompletedCheckout for event types that need no action.
type PaymentProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error)
}

// ObjectStorage stores uploaded files and returns their public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, size int) (string, error)
	Remove(ctx context.Context, bucket, path string) error
}

// ErrCacheMiss is returned by CacheService.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishDonation(ctx context.Context, subject string, ev *domain.DonationEvent) error
	PublishRequest(ctx context.Context, ev *domain.RequestEvent) error
	PublishPayment(ctx context.Context, m *domain.MonetaryDonation) error
	PublishPrediction(ctx context.Context, p *domain.MLPrediction) error
	PublishRedemption(ctx context.Context, r *domain.Redemption) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeDonationsCompleted(ctx context.Context, handler func(ctx context.Context, ev *domain.DonationEvent) error) error
}

// RedemptionStarter hands a debited redemption to asynchronous fulfilment.
type RedemptionStarter interface {
	StartRedemption(ctx context.Context, r *domain.Redemption) error
}

// NotificationService sends notifications (push, email, etc.).
type NotificationService interface {
	SendPush(ctx context.Context, userID, title, body string) error
}
