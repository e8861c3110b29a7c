package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

// Streams backing the marketplace events. Subjects are also visible to core
// NATS subscribers such as the WebSocket relay.
var streams = []nats.StreamConfig{
	{
		Name:      "DONATIONS",
		Subjects:  []string{"donations.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "REQUESTS",
		Subjects:  []string{"requests.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    7 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "PAYMENTS",
		Subjects:  []string{"payments.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "PREDICTIONS",
		Subjects:  []string{"predictions.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
	{
		Name:      "REWARDS",
		Subjects:  []string{"rewards.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and makes sure every stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if err := ensureStreams(js); err != nil {
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, js: js}, nil
}

func ensureStreams(js nats.JetStreamContext) error {
	for i := range streams {
		cfg := streams[i]
		if _, err := js.AddStream(&cfg); err != nil {
			// already exists with a different config
			if _, err := js.UpdateStream(&cfg); err != nil {
				return fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	if _, err := p.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) PublishDonation(ctx context.Context, subject string, ev *domain.DonationEvent) error {
	return p.publish(ctx, subject, ev)
}

func (p *Publisher) PublishRequest(ctx context.Context, ev *domain.RequestEvent) error {
	return p.publish(ctx, domain.SubjectRequestPosted, ev)
}

func (p *Publisher) PublishPayment(ctx context.Context, m *domain.MonetaryDonation) error {
	return p.publish(ctx, domain.SubjectPaymentCompleted, m)
}

func (p *Publisher) PublishPrediction(ctx context.Context, pred *domain.MLPrediction) error {
	return p.publish(ctx, domain.SubjectPredictionsUpdated, pred)
}

// PublishRedemption never carries the gift card code.
func (p *Publisher) PublishRedemption(ctx context.Context, r *domain.Redemption) error {
	ev := *r
	ev.Code = ""
	return p.publish(ctx, domain.SubjectRewardsRedeemed, &ev)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection (e.g. for the WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("passtheplate"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
