package postgres

import (
	"context"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

// RedemptionRepo implements ports.RedemptionRepository.
type RedemptionRepo struct {
	q Querier
}

func NewRedemptionRepo(q Querier) *RedemptionRepo {
	return &RedemptionRepo{q: q}
}

func (r *RedemptionRepo) Create(ctx context.Context, red *domain.Redemption) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO gift_card_redemptions (user_id, brand, cost)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, red.UserID, string(red.Brand), red.Cost).Scan(&red.ID, &red.CreatedAt)
}

// SetCode stores the issued code. It is a no-op when a code is already set,
// so a retried activity keeps the first code.
func (r *RedemptionRepo) SetCode(ctx context.Context, id, code string) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE gift_card_redemptions SET code = $2
		WHERE id = $1 AND code IS NULL
	`, id, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM gift_card_redemptions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r *RedemptionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM gift_card_redemptions WHERE id = $1`, id)
	return err
}
