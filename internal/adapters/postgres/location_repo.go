package postgres

import (
	"context"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

// LocationRepo implements ports.LocationRepository. Coordinates match exactly.
type LocationRepo struct {
	q Querier
}

func NewLocationRepo(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

func (r *LocationRepo) GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	var l domain.Location
	err := r.q.QueryRow(ctx, `
		SELECT id, latitude, longitude, location_name, created_at, updated_at
		FROM locations WHERE latitude = $1 AND longitude = $2
	`, lat, lon).Scan(&l.ID, &l.Latitude, &l.Longitude, &l.LocationName, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// GetMany looks up all points in one round trip.
func (r *LocationRepo) GetMany(ctx context.Context, points []domain.GeoPoint) (map[domain.GeoPoint]string, error) {
	out := make(map[domain.GeoPoint]string, len(points))
	if len(points) == 0 {
		return out, nil
	}

	lats := make([]float64, len(points))
	lons := make([]float64, len(points))
	for i, p := range points {
		lats[i], lons[i] = p.Lat, p.Lon
	}

	rows, err := r.q.Query(ctx, `
		SELECT l.latitude, l.longitude, l.location_name
		FROM locations l
		JOIN unnest($1::float8[], $2::float8[]) AS p(lat, lon)
		  ON l.latitude = p.lat AND l.longitude = p.lon
	`, lats, lons)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p    domain.GeoPoint
			name string
		)
		if err := rows.Scan(&p.Lat, &p.Lon, &name); err != nil {
			return nil, err
		}
		out[p] = name
	}
	return out, rows.Err()
}

func (r *LocationRepo) Upsert(ctx context.Context, loc *domain.Location) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO locations (latitude, longitude, location_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (latitude, longitude) DO UPDATE
		SET location_name = EXCLUDED.location_name, updated_at = now()
		RETURNING id, created_at, updated_at
	`, loc.Latitude, loc.Longitude, loc.LocationName).Scan(&loc.ID, &loc.CreatedAt, &loc.UpdatedAt)
}
