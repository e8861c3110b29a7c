// Package stripe implements card checkout and webhook verification.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

var errNoWebhookSecret = errors.New("webhook secret not configured")

// Provider implements ports.PaymentProvider.
type Provider struct {
	api           *client.API
	secretKey     string
	webhookSecret string
}

// New creates a Provider. backends may be nil to talk to the live API.
func New(secretKey, webhookSecret string, backends *stripego.Backends) *Provider {
	return &Provider{
		api:           client.New(secretKey, backends),
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
	}
}

// CreateCheckout opens a hosted card checkout for one line item. Payer,
// endpoints and amount travel as metadata so the webhook can record the
// donation.
func (p *Provider) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutSession, error) {
	if p.secretKey == "" {
		return nil, &domain.UpstreamError{
			Service: "stripe",
			Status:  http.StatusInternalServerError,
			Detail:  "Stripe secret key not configured",
		}
	}

	params := &stripego.CheckoutSessionParams{
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency: stripego.String(string(stripego.CurrencyUSD)),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripego.String("Monetary Donation"),
					Description: stripego.String(req.Description),
				},
				UnitAmount: stripego.Int64(req.AmountCents),
			},
			Quantity: stripego.Int64(1),
		}},
		SuccessURL: stripego.String(req.SuccessURL),
		CancelURL:  stripego.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("fromLatitude", formatFloat(req.From.Lat))
	params.AddMetadata("fromLongitude", formatFloat(req.From.Lon))
	params.AddMetadata("toLatitude", formatFloat(req.To.Lat))
	params.AddMetadata("toLongitude", formatFloat(req.To.Lon))
	params.AddMetadata("amount", formatFloat(float64(req.AmountCents)/100))

	s, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, upstream(err)
	}
	return &ports.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts a completed
// checkout. Other event types yield (nil, nil).
func (p *Provider) ParseWebhook(payload []byte, signature string) (*ports.CompletedCheckout, error) {
	if p.webhookSecret == "" {
		return nil, errNoWebhookSecret
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, err
	}
	if event.Type != stripego.EventTypeCheckoutSessionCompleted {
		return nil, nil
	}

	var s stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}

	md := s.Metadata
	return &ports.CompletedCheckout{
		SessionID: s.ID,
		UserID:    md["userId"],
		From:      domain.GeoPoint{Lat: parseFloat(md["fromLatitude"]), Lon: parseFloat(md["fromLongitude"])},
		To:        domain.GeoPoint{Lat: parseFloat(md["toLatitude"]), Lon: parseFloat(md["toLongitude"])},
		Amount:    parseFloat(md["amount"]),
	}, nil
}

func upstream(err error) error {
	var se *stripego.Error
	if errors.As(err, &se) {
		status := se.HTTPStatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		return &domain.UpstreamError{Service: "stripe", Status: status, Detail: se.Msg}
	}
	return fmt.Errorf("stripe: %w", err)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseFloat treats missing or malformed metadata as 0.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
