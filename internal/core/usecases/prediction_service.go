package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const (
	highestNeedCacheKey = "predictions:highest_need"
	highestNeedCacheTTL = 60
)

// PredictionService serves the ML highest-need location.
type PredictionService struct {
	source      ports.PredictionSource
	predictions ports.PredictionRepository
	cache       ports.CacheService
	events      ports.EventPublisher
}

// NewPredictionService creates a new PredictionService. cache and events may be nil.
func NewPredictionService(source ports.PredictionSource, predictions ports.PredictionRepository, cache ports.CacheService, events ports.EventPublisher) *PredictionService {
	return &PredictionService{source: source, predictions: predictions, cache: cache, events: events}
}

// HighestNeed returns the current prediction, from cache when fresh.
func (s *PredictionService) HighestNeed(ctx context.Context) (*domain.MLPrediction, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, highestNeedCacheKey); err == nil {
			var p domain.MLPrediction
			if err := json.Unmarshal(data, &p); err == nil {
				metrics.CacheHits.WithLabelValues("highest_need").Inc()
				return &p, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("highest_need").Inc()
	}

	p, _, err := s.Refresh(ctx)
	return p, err
}

// Refresh fetches a fresh prediction and stores it when it differs from the
// stored row for the same coordinates. Storage failures are logged and never
// fail the refresh.
func (s *PredictionService) Refresh(ctx context.Context) (*domain.MLPrediction, bool, error) {
	start := time.Now()
	defer func() { metrics.PredictionRefreshDuration.Observe(time.Since(start).Seconds()) }()

	p, err := s.source.HighestNeed(ctx)
	if err != nil {
		metrics.PredictionRefreshErrors.Inc()
		return nil, false, err
	}

	changed := s.store(ctx, p)

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			_ = s.cache.Set(ctx, highestNeedCacheKey, data, highestNeedCacheTTL)
		}
	}

	if changed && s.events != nil {
		if err := s.events.PublishPrediction(ctx, p); err != nil {
			slog.WarnContext(ctx, "publish prediction", "error", err)
		}
	}
	return p, changed, nil
}

func (s *PredictionService) store(ctx context.Context, p *domain.MLPrediction) bool {
	existing, err := s.predictions.GetByCoordinates(ctx, p.Latitude, p.Longitude)
	switch {
	case err == nil && existing.SameAs(*p):
		slog.DebugContext(ctx, "prediction unchanged", "lat", p.Latitude, "lon", p.Longitude)
		return false
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		slog.ErrorContext(ctx, "load stored prediction", "error", err)
		return false
	}

	if err := s.predictions.Upsert(ctx, p); err != nil {
		slog.ErrorContext(ctx, "store prediction", "error", err)
		return false
	}
	slog.InfoContext(ctx, "prediction stored",
		"lat", p.Latitude, "lon", p.Longitude, "score", p.PredictedNeedScore, "new", existing == nil)
	return true
}

// List returns stored predictions, newest first.
func (s *PredictionService) List(ctx context.Context, limit int) ([]domain.MLPrediction, error) {
	out, err := s.predictions.List(ctx, clampLimit(limit, 20, 100))
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return out, nil
}
