package usecases_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
)

func TestRequestService_Clusters(t *testing.T) {
	repo := &mockRequestRepo{
		listFn: func(ctx context.Context, f ports.RequestFilter) ([]domain.Request, error) {
			assert.Equal(t, domain.RequestOpen, f.Status)
			return []domain.Request{
				{ID: "phl-1", Latitude: 39.9526, Longitude: -75.1652},
				{ID: "nyc-1", Latitude: 40.7128, Longitude: -74.0060},
				{ID: "phl-2", Latitude: 39.9600, Longitude: -75.1700},
			}, nil
		},
	}
	svc := usecases.NewRequestService(repo, nil)

	groups, err := svc.Clusters(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, "phl-1", groups[0].Members[0].ID)
	assert.Equal(t, "phl-2", groups[0].Members[1].ID)
	assert.InDelta(t, (39.9526+39.9600)/2, groups[0].Lat, 1e-9)

	assert.Equal(t, 1, groups[1].Count)
	assert.Equal(t, "nyc-1", groups[1].Members[0].ID)
}

func TestRequestService_Clusters_ReadsEveryPage(t *testing.T) {
	const total = 1234
	var offsets []int
	repo := &mockRequestRepo{
		listFn: func(ctx context.Context, f ports.RequestFilter) ([]domain.Request, error) {
			offsets = append(offsets, f.Offset)
			var page []domain.Request
			for i := f.Offset; i < total && len(page) < f.Limit; i++ {
				page = append(page, domain.Request{ID: fmt.Sprintf("r-%d", i), Latitude: 39.95, Longitude: -75.16})
			}
			return page, nil
		},
	}
	svc := usecases.NewRequestService(repo, nil)

	groups, err := svc.Clusters(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, total, groups[0].Count)
	assert.Equal(t, []int{0, 500, 1000}, offsets)
}

func TestRequestService_Clusters_Empty(t *testing.T) {
	svc := usecases.NewRequestService(&mockRequestRepo{}, nil)
	groups, err := svc.Clusters(context.Background(), 25)
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestRequestService_Create(t *testing.T) {
	pub := newRecordingPublisher()
	svc := usecases.NewRequestService(&mockRequestRepo{}, pub)

	r := &domain.Request{UserID: "u1", Title: "Need diapers", Latitude: 39.95, Longitude: -75.16, Status: domain.RequestClosed}
	require.NoError(t, svc.Create(context.Background(), r))
	assert.Equal(t, domain.RequestOpen, r.Status)
	require.Len(t, pub.requests, 1)
	assert.Equal(t, "req-1", pub.requests[0].RequestID)

	err := svc.Create(context.Background(), &domain.Request{UserID: "u1", Title: "x", Latitude: 0, Longitude: 200})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRequestService_UpdateAndDelete_OwnerOnly(t *testing.T) {
	repo := &mockRequestRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Request, error) {
			return &domain.Request{ID: id, UserID: "owner"}, nil
		},
	}
	svc := usecases.NewRequestService(repo, nil)
	ctx := context.Background()

	fulfilled := domain.RequestFulfilled
	_, err := svc.Update(ctx, "r1", "intruder", ports.RequestUpdate{Status: &fulfilled})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, "r1", "owner", ports.RequestUpdate{Status: &fulfilled})
	assert.NoError(t, err)

	bogus := domain.RequestStatus("archived")
	_, err = svc.Update(ctx, "r1", "owner", ports.RequestUpdate{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, svc.Delete(ctx, "r1", "intruder"), domain.ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, "r1", "owner"))
}
