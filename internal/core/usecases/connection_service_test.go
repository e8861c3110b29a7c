package usecases_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

func TestConnectionService_List(t *testing.T) {
	locRepo := newMockLocationRepo()
	locRepo.names[domain.GeoPoint{Lat: 39.95, Lon: -75.16}] = "Philadelphia, PA, USA"
	locRepo.names[domain.GeoPoint{Lat: 40.71, Lon: -74.0}] = "New York, NY, USA"
	locations := usecases.NewLocationService(locRepo, nil, &fakeNamer{}, 2)

	payments := &mockMonetaryRepo{list: []domain.MonetaryDonation{
		{ID: "m1", FromLatitude: 39.95, FromLongitude: -75.16, ToLatitude: 40.71, ToLongitude: -74.0, Amount: 5},
		{ID: "m2", FromLatitude: 40.71, FromLongitude: -74.0, ToLatitude: 1, ToLongitude: 2, Amount: 3},
	}}
	svc := usecases.NewConnectionService(payments, locations)

	conns, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	assert.Equal(t, "Philadelphia, PA, USA", conns[0].FromName)
	assert.Equal(t, "New York, NY, USA", conns[0].ToName)
	assert.Equal(t, "New York, NY, USA", conns[1].FromName)
	assert.Equal(t, "Place 1/2", conns[1].ToName)
}
