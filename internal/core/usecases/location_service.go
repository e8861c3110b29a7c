package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const (
	locationCacheTTL  = 24 * 60 * 60
	locationBatchSize = 50

	locationLookupTimeout = 90 * time.Second
)

// CoordinateNamer produces a place name for a coordinate pair.
type CoordinateNamer interface {
	NameCoordinates(ctx context.Context, lat, lon float64) (string, error)
}

// LocationService resolves coordinates to names through the cache, the
// locations table and finally the model. Concurrent lookups of the same
// coordinates share one resolution.
type LocationService struct {
	locations      ports.LocationRepository
	cache          ports.CacheService
	namer          CoordinateNamer
	maxConcurrency int
	inflight       singleflight.Group
}

// NewLocationService creates a new LocationService. cache may be nil.
func NewLocationService(locations ports.LocationRepository, cache ports.CacheService, namer CoordinateNamer, maxConcurrency int) *LocationService {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &LocationService{
		locations:      locations,
		cache:          cache,
		namer:          namer,
		maxConcurrency: maxConcurrency,
	}
}

type namedLocation struct {
	name   string
	cached bool
}

// Name returns the place name for the exact coordinates. cached reports
// whether the name was already known.
func (s *LocationService) Name(ctx context.Context, lat, lon float64) (name string, cached bool, err error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return "", false, err
	}

	key := locationKey(lat, lon)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil && len(data) > 0 {
			metrics.CacheHits.WithLabelValues("location_name").Inc()
			return string(data), true, nil
		}
		metrics.CacheMisses.WithLabelValues("location_name").Inc()
	}

	// The key is forgotten as soon as the call returns, success or not. The
	// shared lookup outlives any single caller; each caller waits on its own ctx.
	ch := s.inflight.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), locationLookupTimeout)
		defer cancel()
		return s.resolve(lookupCtx, lat, lon)
	})
	var res namedLocation
	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return "", false, r.Err
		}
		res = r.Val.(namedLocation)
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, []byte(res.name), locationCacheTTL)
	}
	return res.name, res.cached, nil
}

func (s *LocationService) resolve(ctx context.Context, lat, lon float64) (namedLocation, error) {
	loc, err := s.locations.GetByCoordinates(ctx, lat, lon)
	switch {
	case err == nil && loc.LocationName != "":
		return namedLocation{name: loc.LocationName, cached: true}, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		slog.WarnContext(ctx, "location lookup failed, asking model", "lat", lat, "lon", lon, "error", err)
	}

	name, err := s.namer.NameCoordinates(ctx, lat, lon)
	if err != nil {
		return namedLocation{}, err
	}

	if err := s.locations.Upsert(ctx, &domain.Location{Latitude: lat, Longitude: lon, LocationName: name}); err != nil {
		slog.WarnContext(ctx, "store location name", "lat", lat, "lon", lon, "error", err)
	}
	return namedLocation{name: name}, nil
}

// NameMany names every point. Known names come from the locations table in
// chunks; the rest are resolved concurrently with bounded fan-out. A point
// that cannot be named gets its formatted coordinates instead.
func (s *LocationService) NameMany(ctx context.Context, points []domain.GeoPoint) map[domain.GeoPoint]string {
	out := make(map[domain.GeoPoint]string, len(points))
	unique := make([]domain.GeoPoint, 0, len(points))
	for _, p := range points {
		if _, seen := out[p]; seen {
			continue
		}
		out[p] = ""
		unique = append(unique, p)
	}

	for start := 0; start < len(unique); start += locationBatchSize {
		end := min(start+locationBatchSize, len(unique))
		known, err := s.locations.GetMany(ctx, unique[start:end])
		if err != nil {
			slog.WarnContext(ctx, "batch location lookup failed", "points", end-start, "error", err)
			continue
		}
		for p, name := range known {
			if _, want := out[p]; want && name != "" {
				out[p] = name
			}
		}
	}

	var missing []domain.GeoPoint
	for _, p := range unique {
		if out[p] == "" {
			missing = append(missing, p)
		}
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.maxConcurrency)
	for _, p := range missing {
		g.Go(func() error {
			name, _, err := s.Name(ctx, p.Lat, p.Lon)
			if err != nil {
				slog.WarnContext(ctx, "name coordinates", "lat", p.Lat, "lon", p.Lon, "error", err)
				name = FormatCoordinates(p.Lat, p.Lon)
			}
			mu.Lock()
			out[p] = name
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// FormatCoordinates is the fallback label for an unnamed point.
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lon)
}

func locationKey(lat, lon float64) string {
	return fmt.Sprintf("location:name:%v:%v", lat, lon)
}
