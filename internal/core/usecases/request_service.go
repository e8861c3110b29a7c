package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/geospatial"
)

// RequestService handles help-request business logic.
type RequestService struct {
	requests ports.RequestRepository
	events   ports.EventPublisher
	now      func() time.Time
}

// NewRequestService creates a new RequestService. events may be nil.
func NewRequestService(requests ports.RequestRepository, events ports.EventPublisher) *RequestService {
	return &RequestService{requests: requests, events: events, now: time.Now}
}

// List returns requests matching f.
func (s *RequestService) List(ctx context.Context, f ports.RequestFilter) ([]domain.Request, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, f.Status)
	}
	f.Limit = clampLimit(f.Limit, 100, 500)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.requests.List(ctx, f)
}

// Get returns a single request.
func (s *RequestService) Get(ctx context.Context, id string) (*domain.Request, error) {
	return s.requests.GetByID(ctx, id)
}

// Create posts a new open request.
func (s *RequestService) Create(ctx context.Context, r *domain.Request) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.UserID == "" || r.Title == "" {
		return fmt.Errorf("%w: user_id and title are required", domain.ErrInvalidInput)
	}
	if err := validateCoordinates(r.Latitude, r.Longitude); err != nil {
		return err
	}
	r.Status = domain.RequestOpen

	if err := s.requests.Create(ctx, r); err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if s.events != nil {
		ev := &domain.RequestEvent{
			RequestID:  r.ID,
			UserID:     r.UserID,
			Title:      r.Title,
			Latitude:   r.Latitude,
			Longitude:  r.Longitude,
			OccurredAt: s.now().UTC(),
		}
		if err := s.events.PublishRequest(ctx, ev); err != nil {
			slog.WarnContext(ctx, "publish request event", "request_id", r.ID, "error", err)
		}
	}
	return nil
}

// Update changes an owned request.
func (s *RequestService) Update(ctx context.Context, id, userID string, u ports.RequestUpdate) (*domain.Request, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *u.Status)
	}
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
	}
	if err := s.authorize(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.requests.Update(ctx, id, u)
}

// Delete removes an owned request.
func (s *RequestService) Delete(ctx context.Context, id, userID string) error {
	if err := s.authorize(ctx, id, userID); err != nil {
		return err
	}
	return s.requests.Delete(ctx, id)
}

const clusterPageSize = 500

// Clusters groups every open request into map pins. A non-positive radius
// uses geospatial.DefaultClusterRadiusKm.
func (s *RequestService) Clusters(ctx context.Context, radiusKm float64) ([]geospatial.Group[domain.Request], error) {
	var open []domain.Request
	for offset := 0; ; offset += clusterPageSize {
		page, err := s.requests.List(ctx, ports.RequestFilter{
			Status: domain.RequestOpen,
			Limit:  clusterPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list open requests: %w", err)
		}
		open = append(open, page...)
		if len(page) < clusterPageSize {
			break
		}
	}
	return geospatial.Cluster(open, radiusKm), nil
}

func (s *RequestService) authorize(ctx context.Context, id, userID string) error {
	current, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.UserID != userID {
		return domain.ErrForbidden
	}
	return nil
}
