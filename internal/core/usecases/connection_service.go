package usecases

import (
	"context"
	"fmt"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

// ConnectionService builds the globe view of monetary donation flows.
type ConnectionService struct {
	payments  ports.MonetaryDonationRepository
	locations *LocationService
}

// NewConnectionService creates a new ConnectionService.
func NewConnectionService(payments ports.MonetaryDonationRepository, locations *LocationService) *ConnectionService {
	return &ConnectionService{payments: payments, locations: locations}
}

// List returns the latest monetary donations with both ends named.
func (s *ConnectionService) List(ctx context.Context, limit int) ([]domain.Connection, error) {
	donations, err := s.payments.List(ctx, clampLimit(limit, 100, 500))
	if err != nil {
		return nil, fmt.Errorf("list monetary donations: %w", err)
	}

	points := make([]domain.GeoPoint, 0, 2*len(donations))
	for _, m := range donations {
		points = append(points,
			domain.GeoPoint{Lat: m.FromLatitude, Lon: m.FromLongitude},
			domain.GeoPoint{Lat: m.ToLatitude, Lon: m.ToLongitude},
		)
	}
	names := s.locations.NameMany(ctx, points)

	out := make([]domain.Connection, 0, len(donations))
	for _, m := range donations {
		out = append(out, domain.Connection{
			MonetaryDonation: m,
			FromName:         names[domain.GeoPoint{Lat: m.FromLatitude, Lon: m.FromLongitude}],
			ToName:           names[domain.GeoPoint{Lat: m.ToLatitude, Lon: m.ToLongitude}],
		})
	}
	return out, nil
}
