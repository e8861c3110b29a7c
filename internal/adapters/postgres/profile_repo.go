package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

// ProfileRepo implements ports.ProfileRepository with pgx.
type ProfileRepo struct {
	q Querier
}

func NewProfileRepo(q Querier) *ProfileRepo {
	return &ProfileRepo{q: q}
}

func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var (
		p            domain.Profile
		achievements string
	)
	err := r.q.QueryRow(ctx, `
		SELECT id, name, about_me, email, avatar_url, rating, achievements, rewards, created_at, updated_at
		FROM profiles WHERE id = $1
	`, id).Scan(
		&p.ID, &p.Name, &p.AboutMe, &p.Email, &p.AvatarURL, &p.Rating,
		&achievements, &p.Rewards, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	p.Achievements = domain.ParseAchievements(achievements)
	return &p, nil
}

func (r *ProfileRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Upsert writes the user-editable fields, creating the row on first save.
func (r *ProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO profiles (id, name, about_me, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, about_me = EXCLUDED.about_me,
		    email = EXCLUDED.email, updated_at = now()
	`, p.ID, p.Name, p.AboutMe, p.Email)
	return err
}

func (r *ProfileRepo) SetAvatarURL(ctx context.Context, id string, url *string) error {
	tag, err := r.q.Exec(ctx, `UPDATE profiles SET avatar_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProfileRepo) AddRewards(ctx context.Context, id string, points int) (int, error) {
	var balance int
	err := r.q.QueryRow(ctx, `
		UPDATE profiles SET rewards = rewards + $2, updated_at = now()
		WHERE id = $1
		RETURNING rewards
	`, id, points).Scan(&balance)
	if err != nil {
		return 0, notFound(err)
	}
	return balance, nil
}

// DebitRewards subtracts cost only when the balance covers it.
func (r *ProfileRepo) DebitRewards(ctx context.Context, id string, cost int) (int, error) {
	var balance int
	err := r.q.QueryRow(ctx, `
		UPDATE profiles SET rewards = rewards - $2, updated_at = now()
		WHERE id = $1 AND rewards >= $2
		RETURNING rewards
	`, id, cost).Scan(&balance)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, domain.ErrNotFound
	}
	return 0, domain.ErrInsufficientRewards
}

// AwardForDonation marks the donation rewarded and credits the donor in one
// transaction.
func (r *ProfileRepo) AwardForDonation(ctx context.Context, donationID, profileID string, points int) (bool, error) {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE donations SET rewarded_at = now()
		WHERE id = $1 AND status = 'completed' AND rewarded_at IS NULL
	`, donationID)
	if err != nil {
		return false, fmt.Errorf("mark rewarded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	tag, err = tx.Exec(ctx, `UPDATE profiles SET rewards = rewards + $2, updated_at = now() WHERE id = $1`, profileID, points)
	if err != nil {
		return false, fmt.Errorf("credit rewards: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, domain.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}
