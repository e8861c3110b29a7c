//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/migrations"
)

var (
	dbOnce    sync.Once
	sharedDSN string
	dbErr     error
)

// setupDB starts one Postgres container per test run and migrates it.
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbOnce.Do(func() { sharedDSN, dbErr = startPostgres() })
	if dbErr != nil {
		t.Fatalf("setup postgres: %v", dbErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, sharedDSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func startPostgres() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ptp",
				"POSTGRES_PASSWORD": "ptp",
				"POSTGRES_DB":       "ptp",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", err
	}
	dsn := fmt.Sprintf("postgres://ptp:ptp@%s:%s/ptp?sslmode=disable", host, port.Port())

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return "", err
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return "", fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return "", fmt.Errorf("goose up: %w", err)
	}
	return dsn, nil
}

func TestIntegration_DonationLifecycle(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()

	profiles := NewProfileRepo(pool)
	donations := NewDonationRepo(pool)

	donor := &domain.Profile{ID: "donor-" + t.Name(), Name: "Donor", Email: "donor@example.com"}
	require.NoError(t, profiles.Upsert(ctx, donor))

	expiry := "2030-01-15"
	d := &domain.Donation{
		UserID: donor.ID, Title: "Bread", Description: "Two loaves",
		Latitude: 39.95, Longitude: -75.16, ExpiryDate: &expiry, Status: domain.DonationAvailable,
	}
	require.NoError(t, donations.Create(ctx, d))
	require.NotEmpty(t, d.ID)

	got, err := donations.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-15", *got.ExpiryDate)

	nearby, err := donations.List(ctx, ports.DonationFilter{
		Status: domain.DonationAvailable,
		Within: &ports.Bounds{MinLat: 39.9, MaxLat: 40.0, MinLon: -75.2, MaxLon: -75.1},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, nearby)

	claimed, err := donations.Claim(ctx, d.ID, "neighbor")
	require.NoError(t, err)
	assert.Equal(t, domain.DonationClaimed, claimed.Status)

	_, err = donations.Claim(ctx, d.ID, "someone-else")
	assert.ErrorIs(t, err, domain.ErrNotAvailable)

	_, err = donations.Complete(ctx, d.ID)
	require.NoError(t, err)

	awarded, err := profiles.AwardForDonation(ctx, d.ID, donor.ID, 10)
	require.NoError(t, err)
	assert.True(t, awarded)

	awarded, err = profiles.AwardForDonation(ctx, d.ID, donor.ID, 10)
	require.NoError(t, err)
	assert.False(t, awarded, "second award for the same donation must be a no-op")

	p, err := profiles.GetByID(ctx, donor.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Rewards)

	_, err = profiles.DebitRewards(ctx, donor.ID, 50)
	assert.ErrorIs(t, err, domain.ErrInsufficientRewards)
}

func TestIntegration_MonetaryDonationIsIdempotentPerSession(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	repo := NewMonetaryDonationRepo(pool)

	m := domain.MonetaryDonation{UserID: "u1", Amount: 5, SessionID: "cs_" + t.Name()}
	created, err := repo.Create(ctx, &m)
	require.NoError(t, err)
	assert.True(t, created)

	dup := m
	created, err = repo.Create(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestIntegration_LocationGetMany(t *testing.T) {
	pool := setupDB(t)
	ctx := context.Background()
	repo := NewLocationRepo(pool)

	require.NoError(t, repo.Upsert(ctx, &domain.Location{Latitude: 10.5, Longitude: 20.25, LocationName: "Here"}))

	got, err := repo.GetMany(ctx, []domain.GeoPoint{{Lat: 10.5, Lon: 20.25}, {Lat: 1, Lon: 1}})
	require.NoError(t, err)
	assert.Equal(t, map[domain.GeoPoint]string{{Lat: 10.5, Lon: 20.25}: "Here"}, got)
}
