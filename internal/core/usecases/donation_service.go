package usecases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/geospatial"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const (
	donationImageBucket = "donations"
	maxImageBytes       = 5 << 20

	defaultNearbyRadiusKm = 10.0
	maxNearbyRadiusKm     = 500.0
)

// DonationService handles item donation business logic.
type DonationService struct {
	donations ports.DonationRepository
	storage   ports.ObjectStorage
	events    ports.EventPublisher
	now       func() time.Time
}

// NewDonationService creates a new DonationService. storage and events may be nil.
func NewDonationService(donations ports.DonationRepository, storage ports.ObjectStorage, events ports.EventPublisher) *DonationService {
	return &DonationService{donations: donations, storage: storage, events: events, now: time.Now}
}

// List returns donations matching f.
func (s *DonationService) List(ctx context.Context, f ports.DonationFilter) ([]domain.Donation, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, f.Status)
	}
	f.Limit = clampLimit(f.Limit, 50, 200)
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.donations.List(ctx, f)
}

// Get returns a single donation.
func (s *DonationService) Get(ctx context.Context, id string) (*domain.Donation, error) {
	return s.donations.GetByID(ctx, id)
}

// Nearby returns available donations within radiusKm of the point, closest first.
func (s *DonationService) Nearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Donation, error) {
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}
	if radiusKm <= 0 {
		radiusKm = defaultNearbyRadiusKm
	}
	radiusKm = math.Min(radiusKm, maxNearbyRadiusKm)
	limit = clampLimit(limit, 50, 200)

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(lat, lon, radiusKm)
	candidates, err := s.donations.List(ctx, ports.DonationFilter{
		Status: domain.DonationAvailable,
		Within: &ports.Bounds{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon},
		Limit:  1000,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	out := make([]domain.Donation, 0, len(candidates))
	for _, d := range candidates {
		dist := geospatial.DistanceKm(lat, lon, d.Latitude, d.Longitude)
		if dist > radiusKm {
			continue
		}
		d.Distance = &dist
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Create posts a new donation owned by d.UserID with status available.
func (s *DonationService) Create(ctx context.Context, d *domain.Donation) error {
	d.Title = strings.TrimSpace(d.Title)
	if d.UserID == "" || d.Title == "" {
		return fmt.Errorf("%w: user_id and title are required", domain.ErrInvalidInput)
	}
	if err := validateCoordinates(d.Latitude, d.Longitude); err != nil {
		return err
	}
	if d.ExpiryDate != nil {
		if _, err := time.Parse(time.DateOnly, *d.ExpiryDate); err != nil {
			return fmt.Errorf("%w: expiry_date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
	}
	d.Status = domain.DonationAvailable
	d.ClaimedBy = nil

	if err := s.donations.Create(ctx, d); err != nil {
		return fmt.Errorf("create donation: %w", err)
	}

	category := "uncategorized"
	if d.Category != nil && *d.Category != "" {
		category = strings.ToLower(*d.Category)
	}
	metrics.DonationsPosted.WithLabelValues(category).Inc()
	s.publish(ctx, domain.SubjectDonationPosted, d)
	return nil
}

// Claim reserves an available donation for claimerID.
func (s *DonationService) Claim(ctx context.Context, id, claimerID string) (*domain.Donation, error) {
	current, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID == claimerID {
		return nil, fmt.Errorf("%w: cannot claim your own donation", domain.ErrForbidden)
	}

	d, err := s.donations.Claim(ctx, id, claimerID)
	if err != nil {
		return nil, err
	}
	metrics.DonationTransitions.WithLabelValues(string(domain.DonationClaimed)).Inc()
	s.publish(ctx, domain.SubjectDonationClaimed, d)
	return d, nil
}

// Complete marks a claimed donation as picked up. Only the donor or the
// claimer may complete it.
func (s *DonationService) Complete(ctx context.Context, id, userID string) (*domain.Donation, error) {
	current, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	isClaimer := current.ClaimedBy != nil && *current.ClaimedBy == userID
	if current.UserID != userID && !isClaimer {
		return nil, domain.ErrForbidden
	}

	d, err := s.donations.Complete(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.DonationTransitions.WithLabelValues(string(domain.DonationCompleted)).Inc()
	s.publish(ctx, domain.SubjectDonationCompleted, d)
	return d, nil
}

// Delete removes a donation. Only its owner may delete it.
func (s *DonationService) Delete(ctx context.Context, id, userID string) error {
	current, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.UserID != userID {
		return domain.ErrForbidden
	}
	if err := s.donations.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	s.publish(ctx, domain.SubjectDonationDeleted, current)
	return nil
}

// ImageUpload is a donation photo received from a client.
type ImageUpload struct {
	UserID      string
	DonationID  string // optional; when set the donation's image_url is updated
	Filename    string
	ContentType string
	Size        int
	Body        io.Reader
}

// UploadImage stores a donation photo under <user>/<uuid>.<ext> and returns its public URL.
func (s *DonationService) UploadImage(ctx context.Context, up ImageUpload) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("object storage is not configured")
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return "", fmt.Errorf("%w: only image files are allowed", domain.ErrInvalidInput)
	}
	if up.Size <= 0 || up.Size > maxImageBytes {
		return "", fmt.Errorf("%w: image must be at most 5 MB", domain.ErrInvalidInput)
	}

	if up.DonationID != "" {
		d, err := s.donations.GetByID(ctx, up.DonationID)
		if err != nil {
			return "", err
		}
		if d.UserID != up.UserID {
			return "", domain.ErrForbidden
		}
	}

	path := fmt.Sprintf("%s/%s.%s", up.UserID, uuid.NewString(), imageExtension(up.Filename, up.ContentType))
	url, err := s.storage.Upload(ctx, donationImageBucket, path, up.ContentType, up.Body, up.Size)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	if up.DonationID != "" {
		if err := s.donations.SetImageURL(ctx, up.DonationID, url); err != nil {
			return "", fmt.Errorf("set image url: %w", err)
		}
	}
	return url, nil
}

func (s *DonationService) publish(ctx context.Context, subject string, d *domain.Donation) {
	if s.events == nil {
		return
	}
	ev := &domain.DonationEvent{
		DonationID: d.ID,
		DonorID:    d.UserID,
		ClaimedBy:  d.ClaimedBy,
		Status:     d.Status,
		Title:      d.Title,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishDonation(ctx, subject, ev); err != nil {
		slog.WarnContext(ctx, "publish donation event", "subject", subject, "donation_id", d.ID, "error", err)
	}
}

func imageExtension(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "jpg"
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinates out of range", domain.ErrInvalidInput)
	}
	return nil
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
