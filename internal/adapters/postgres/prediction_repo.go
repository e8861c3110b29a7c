package postgres

import (
	"context"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

const predictionColumns = `id, latitude, longitude, location_name, predicted_need_score, confidence,
	month, season, food_insecurity_rate, poverty_rate, created_at, updated_at`

// PredictionRepo implements ports.PredictionRepository.
type PredictionRepo struct {
	q Querier
}

func NewPredictionRepo(q Querier) *PredictionRepo {
	return &PredictionRepo{q: q}
}

func scanPrediction(row scanner) (*domain.MLPrediction, error) {
	var p domain.MLPrediction
	if err := row.Scan(
		&p.ID, &p.Latitude, &p.Longitude, &p.LocationName, &p.PredictedNeedScore, &p.Confidence,
		&p.Month, &p.Season, &p.FoodInsecurityRate, &p.PovertyRate, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PredictionRepo) GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.MLPrediction, error) {
	p, err := scanPrediction(r.q.QueryRow(ctx,
		`SELECT `+predictionColumns+` FROM ml_predictions WHERE latitude = $1 AND longitude = $2`, lat, lon))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Upsert inserts or replaces the row for p's coordinates.
func (r *PredictionRepo) Upsert(ctx context.Context, p *domain.MLPrediction) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO ml_predictions (latitude, longitude, location_name, predicted_need_score, confidence,
		                            month, season, food_insecurity_rate, poverty_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (latitude, longitude) DO UPDATE
		SET location_name = EXCLUDED.location_name,
		    predicted_need_score = EXCLUDED.predicted_need_score,
		    confidence = EXCLUDED.confidence,
		    month = EXCLUDED.month,
		    season = EXCLUDED.season,
		    food_insecurity_rate = EXCLUDED.food_insecurity_rate,
		    poverty_rate = EXCLUDED.poverty_rate,
		    updated_at = now()
		RETURNING id, created_at, updated_at
	`, p.Latitude, p.Longitude, p.LocationName, p.PredictedNeedScore, p.Confidence,
		p.Month, p.Season, p.FoodInsecurityRate, p.PovertyRate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// List returns predictions, most recently updated first.
func (r *PredictionRepo) List(ctx context.Context, limit int) ([]domain.MLPrediction, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+predictionColumns+` FROM ml_predictions ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.MLPrediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
