package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

// Pinger is a backing service the readiness check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Donations   *usecases.DonationService
	Requests    *usecases.RequestService
	Profiles    *usecases.ProfileService
	AI          *usecases.AIService
	Locations   *usecases.LocationService
	Connections *usecases.ConnectionService
	Predictions *usecases.PredictionService
	Payments    *usecases.PaymentService
	Rewards     *usecases.RewardService
	Tokens      *Tokens
	NATS        *nats.Conn
	DB          Pinger
	Cache       Pinger
}
