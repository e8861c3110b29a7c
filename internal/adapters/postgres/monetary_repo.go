package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

// MonetaryDonationRepo implements ports.MonetaryDonationRepository.
type MonetaryDonationRepo struct {
	q Querier
}

func NewMonetaryDonationRepo(q Querier) *MonetaryDonationRepo {
	return &MonetaryDonationRepo{q: q}
}

// Create inserts m unless its checkout session was already recorded.
func (r *MonetaryDonationRepo) Create(ctx context.Context, m *domain.MonetaryDonation) (bool, error) {
	var session *string
	if m.SessionID != "" {
		session = &m.SessionID
	}
	err := r.q.QueryRow(ctx, `
		INSERT INTO monetary_donations (user_id, from_latitude, from_longitude, to_latitude, to_longitude, amount, checkout_session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (checkout_session_id) DO NOTHING
		RETURNING id, created_at
	`, m.UserID, m.FromLatitude, m.FromLongitude, m.ToLatitude, m.ToLongitude, m.Amount, session,
	).Scan(&m.ID, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns monetary donations, newest first.
func (r *MonetaryDonationRepo) List(ctx context.Context, limit int) ([]domain.MonetaryDonation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, user_id, from_latitude, from_longitude, to_latitude, to_longitude, amount,
		       COALESCE(checkout_session_id, ''), created_at
		FROM monetary_donations
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.MonetaryDonation{}
	for rows.Next() {
		var m domain.MonetaryDonation
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.FromLatitude, &m.FromLongitude, &m.ToLatitude, &m.ToLongitude,
			&m.Amount, &m.SessionID, &m.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
