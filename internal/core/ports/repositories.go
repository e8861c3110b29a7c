package ports

import (
	"context"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

// Bounds is a latitude/longitude rectangle used to pre-filter proximity queries.
type Bounds struct {
	MinLat, MaxLat, MinLon, MaxLon float64
}

// DonationFilter narrows a donation listing. Zero values do not filter.
type DonationFilter struct {
	Status    domain.DonationStatus
	UserID    string
	ClaimedBy string
	Within    *Bounds
	Limit     int
	Offset    int
}

// DonationRepository persists item donations.
type DonationRepository interface {
	Create(ctx context.Context, d *domain.Donation) error
	GetByID(ctx context.Context, id string) (*domain.Donation, error)
	List(ctx context.Context, f DonationFilter) ([]domain.Donation, error)
	// Claim moves an available donation to claimed. It returns
	// domain.ErrNotAvailable when the donation exists but is not available.
	Claim(ctx context.Context, id, claimerID string) (*domain.Donation, error)
	Complete(ctx context.Context, id string) (*domain.Donation, error)
	SetImageURL(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}

// RequestFilter narrows a request listing.
type RequestFilter struct {
	Status domain.RequestStatus
	UserID string
	Limit  int
	Offset int
}

// RequestUpdate carries the mutable fields of a request. Nil fields are left as is.
type RequestUpdate struct {
	Title       *string
	Description *string
	Address     *string
	PhoneNumber *string
	Status      *domain.RequestStatus
}

// RequestRepository persists help requests.
type RequestRepository interface {
	Create(ctx context.Context, r *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	List(ctx context.Context, f RequestFilter) ([]domain.Request, error)
	Update(ctx context.Context, id string, u RequestUpdate) (*domain.Request, error)
	Delete(ctx context.Context, id string) error
}

// ProfileRepository persists user profiles and their reward balances.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	Exists(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, p *domain.Profile) error
	SetAvatarURL(ctx context.Context, id string, url *string) error
	// AddRewards credits points and returns the new balance.
	AddRewards(ctx context.Context, id string, points int) (int, error)
	// DebitRewards removes cost points atomically, failing with
	// domain.ErrInsufficientRewards if the balance is too low.
	DebitRewards(ctx context.Context, id string, cost int) (int, error)
	// AwardForDonation credits the donor of a completed donation once. It
	// reports false when the donation was already rewarded.
	AwardForDonation(ctx context.Context, donationID, profileID string, points int) (bool, error)
}

// LocationRepository caches coordinate names.
type LocationRepository interface {
	GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.Location, error)
	// GetMany returns the known names for points, keyed by point.
	GetMany(ctx context.Context, points []domain.GeoPoint) (map[domain.GeoPoint]string, error)
	Upsert(ctx context.Context, loc *domain.Location) error
}

// PredictionRepository persists ML highest-need predictions, one row per
// coordinate pair.
type PredictionRepository interface {
	GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.MLPrediction, error)
	Upsert(ctx context.Context, p *domain.MLPrediction) error
	List(ctx context.Context, limit int) ([]domain.MLPrediction, error)
}

// MonetaryDonationRepository persists completed card donations.
type MonetaryDonationRepository interface {
	// Create inserts m. It reports false when a donation for the same
	// checkout session already exists.
	Create(ctx context.Context, m *domain.MonetaryDonation) (bool, error)
	List(ctx context.Context, limit int) ([]domain.MonetaryDonation, error)
}

// RedemptionRepository records gift card redemptions.
type RedemptionRepository interface {
	Create(ctx context.Context, r *domain.Redemption) error
	SetCode(ctx context.Context, id, code string) error
	Delete(ctx context.Context, id string) error
}
