package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

const maxDeliver = 3

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber connects to NATS. Streams are created by the publisher side
// but are ensured here too so consumers can start first.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeDonationsCompleted delivers each completed donation to handler.
// A handler error naks the message; after maxDeliver attempts it is dropped.
func (s *Subscriber) SubscribeDonationsCompleted(ctx context.Context, handler func(ctx context.Context, ev *domain.DonationEvent) error) error {
	sub, err := s.js.Subscribe(domain.SubjectDonationCompleted, func(msg *nats.Msg) {
		var ev domain.DonationEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			slog.Warn("drop malformed donation event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &ev); err != nil {
			slog.Warn("donation event handler failed", "donation_id", ev.DonationID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("rewarder-completed"),
		nats.ManualAck(),
		nats.MaxDeliver(maxDeliver),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.SubjectDonationCompleted, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close drains subscriptions and the connection. Drain keeps the durable
// consumer; Unsubscribe would delete it.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Drain()
	}
	_ = s.conn.Drain()
}
