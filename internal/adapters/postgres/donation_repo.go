package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

const donationColumns = `id, user_id, title, description, category, latitude, longitude,
	address, image_url, expiry_date, status, claimed_by, created_at, updated_at`

// DonationRepo implements ports.DonationRepository with pgx.
type DonationRepo struct {
	q Querier
}

// NewDonationRepo creates a new DonationRepo.
func NewDonationRepo(q Querier) *DonationRepo {
	return &DonationRepo{q: q}
}

func scanDonation(row scanner) (*domain.Donation, error) {
	var (
		d      domain.Donation
		expiry *time.Time
		status string
	)
	if err := row.Scan(
		&d.ID, &d.UserID, &d.Title, &d.Description, &d.Category, &d.Latitude, &d.Longitude,
		&d.Address, &d.ImageURL, &expiry, &status, &d.ClaimedBy, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.Status = domain.DonationStatus(status)
	if expiry != nil {
		s := expiry.Format(time.DateOnly)
		d.ExpiryDate = &s
	}
	return &d, nil
}

func parseExpiry(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, fmt.Errorf("%w: expiry_date: %v", domain.ErrInvalidInput, err)
	}
	return &t, nil
}

// Create inserts d and fills its generated fields.
func (r *DonationRepo) Create(ctx context.Context, d *domain.Donation) error {
	expiry, err := parseExpiry(d.ExpiryDate)
	if err != nil {
		return err
	}
	return r.q.QueryRow(ctx, `
		INSERT INTO donations (user_id, title, description, category, latitude, longitude,
		                       address, image_url, expiry_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, d.UserID, d.Title, d.Description, d.Category, d.Latitude, d.Longitude,
		d.Address, d.ImageURL, expiry, string(d.Status),
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

// GetByID returns a donation by id.
func (r *DonationRepo) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := scanDonation(r.q.QueryRow(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

// List returns donations matching f, newest first.
func (r *DonationRepo) List(ctx context.Context, f ports.DonationFilter) ([]domain.Donation, error) {
	qb := psql.Select(donationColumns).From("donations").OrderBy("created_at DESC", "id")
	if f.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.UserID != "" {
		qb = qb.Where(squirrel.Eq{"user_id": f.UserID})
	}
	if f.ClaimedBy != "" {
		qb = qb.Where(squirrel.Eq{"claimed_by": f.ClaimedBy})
	}
	if b := f.Within; b != nil {
		qb = qb.Where(squirrel.And{
			squirrel.GtOrEq{"latitude": b.MinLat},
			squirrel.LtOrEq{"latitude": b.MaxLat},
			squirrel.GtOrEq{"longitude": b.MinLon},
			squirrel.LtOrEq{"longitude": b.MaxLon},
		})
	}
	if f.Limit > 0 {
		qb = qb.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		qb = qb.Offset(uint64(f.Offset))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	donations := []domain.Donation{}
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		donations = append(donations, *d)
	}
	return donations, rows.Err()
}

// Claim moves an available donation to claimed in a single statement so two
// claimers can never both win.
func (r *DonationRepo) Claim(ctx context.Context, id, claimerID string) (*domain.Donation, error) {
	d, err := scanDonation(r.q.QueryRow(ctx, `
		UPDATE donations
		SET status = 'claimed', claimed_by = $2, updated_at = now()
		WHERE id = $1 AND status = 'available'
		RETURNING `+donationColumns, id, claimerID))
	if err == nil {
		return d, nil
	}
	return nil, r.transitionError(ctx, id, err)
}

// Complete moves a claimed donation to completed.
func (r *DonationRepo) Complete(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := scanDonation(r.q.QueryRow(ctx, `
		UPDATE donations
		SET status = 'completed', updated_at = now()
		WHERE id = $1 AND status = 'claimed'
		RETURNING `+donationColumns, id))
	if err == nil {
		return d, nil
	}
	return nil, r.transitionError(ctx, id, err)
}

// transitionError tells a missing donation apart from one in the wrong state.
func (r *DonationRepo) transitionError(ctx context.Context, id string, err error) error {
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM donations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrNotAvailable
}

func (r *DonationRepo) SetImageURL(ctx context.Context, id, url string) error {
	tag, err := r.q.Exec(ctx, `UPDATE donations SET image_url = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DonationRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM donations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
