package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
)

const requestColumns = `id, user_id, title, description, latitude, longitude,
	address, phone_number, status, created_at, updated_at`

// RequestRepo implements ports.RequestRepository with pgx.
type RequestRepo struct {
	q Querier
}

func NewRequestRepo(q Querier) *RequestRepo {
	return &RequestRepo{q: q}
}

func scanRequest(row scanner) (*domain.Request, error) {
	var (
		r      domain.Request
		status string
	)
	if err := row.Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.Latitude, &r.Longitude,
		&r.Address, &r.PhoneNumber, &status, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = domain.RequestStatus(status)
	return &r, nil
}

func (r *RequestRepo) Create(ctx context.Context, req *domain.Request) error {
	return r.q.QueryRow(ctx, `
		INSERT INTO requests (user_id, title, description, latitude, longitude, address, phone_number, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, req.UserID, req.Title, req.Description, req.Latitude, req.Longitude,
		req.Address, req.PhoneNumber, string(req.Status),
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *RequestRepo) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	req, err := scanRequest(r.q.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

// List returns requests matching f, newest first.
func (r *RequestRepo) List(ctx context.Context, f ports.RequestFilter) ([]domain.Request, error) {
	qb := psql.Select(requestColumns).From("requests").OrderBy("created_at DESC", "id")
	if f.Status != "" {
		qb = qb.Where(squirrel.Eq{"status": string(f.Status)})
	}
	if f.UserID != "" {
		qb = qb.Where(squirrel.Eq{"user_id": f.UserID})
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

	requests := []domain.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

// Update applies the non-nil fields of u.
func (r *RequestRepo) Update(ctx context.Context, id string, u ports.RequestUpdate) (*domain.Request, error) {
	ub := psql.Update("requests").
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + requestColumns)
	if u.Title != nil {
		ub = ub.Set("title", *u.Title)
	}
	if u.Description != nil {
		ub = ub.Set("description", *u.Description)
	}
	if u.Address != nil {
		ub = ub.Set("address", *u.Address)
	}
	if u.PhoneNumber != nil {
		ub = ub.Set("phone_number", *u.PhoneNumber)
	}
	if u.Status != nil {
		ub = ub.Set("status", string(*u.Status))
	}

	sql, args, err := ub.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	req, err := scanRequest(r.q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, notFound(err)
	}
	return req, nil
}

func (r *RequestRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
