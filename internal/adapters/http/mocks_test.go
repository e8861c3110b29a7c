package http_test

import (
	"context"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/aigateway"
)

// ---- Mock repositories ----

type mockDonationRepo struct {
	createFn   func(ctx context.Context, d *domain.Donation) error
	getByIDFn  func(ctx context.Context, id string) (*domain.Donation, error)
	listFn     func(ctx context.Context, f ports.DonationFilter) ([]domain.Donation, error)
	claimFn    func(ctx context.Context, id, claimerID string) (*domain.Donation, error)
	completeFn func(ctx context.Context, id string) (*domain.Donation, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockDonationRepo) Create(ctx context.Context, d *domain.Donation) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return nil
}
func (m *mockDonationRepo) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockDonationRepo) List(ctx context.Context, f ports.DonationFilter) ([]domain.Donation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}
func (m *mockDonationRepo) Claim(ctx context.Context, id, claimerID string) (*domain.Donation, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, id, claimerID)
	}
	return nil, domain.ErrNotFound
}
func (m *mockDonationRepo) Complete(ctx context.Context, id string) (*domain.Donation, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockDonationRepo) SetImageURL(ctx context.Context, id, url string) error { return nil }
func (m *mockDonationRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockRequestRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Request, error)
	listFn    func(ctx context.Context, f ports.RequestFilter) ([]domain.Request, error)
	updateFn  func(ctx context.Context, id string, u ports.RequestUpdate) (*domain.Request, error)
}

func (m *mockRequestRepo) Create(ctx context.Context, r *domain.Request) error {
	r.ID = "r-new"
	return nil
}
func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockRequestRepo) List(ctx context.Context, f ports.RequestFilter) ([]domain.Request, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}
func (m *mockRequestRepo) Update(ctx context.Context, id string, u ports.RequestUpdate) (*domain.Request, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, u)
	}
	return nil, domain.ErrNotFound
}
func (m *mockRequestRepo) Delete(ctx context.Context, id string) error { return nil }

type mockProfileRepo struct {
	getByIDFn func(ctx context.Context, id string) (*domain.Profile, error)
	debitFn   func(ctx context.Context, id string, cost int) (int, error)
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockProfileRepo) Exists(ctx context.Context, id string) (bool, error) { return false, nil }
func (m *mockProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error { return nil }
func (m *mockProfileRepo) SetAvatarURL(ctx context.Context, id string, url *string) error {
	return nil
}
func (m *mockProfileRepo) AddRewards(ctx context.Context, id string, points int) (int, error) {
	return points, nil
}
func (m *mockProfileRepo) DebitRewards(ctx context.Context, id string, cost int) (int, error) {
	if m.debitFn != nil {
		return m.debitFn(ctx, id, cost)
	}
	return 0, domain.ErrInsufficientRewards
}
func (m *mockProfileRepo) AwardForDonation(ctx context.Context, donationID, profileID string, points int) (bool, error) {
	return true, nil
}

type mockRedemptionRepo struct{}

func (m *mockRedemptionRepo) Create(ctx context.Context, r *domain.Redemption) error {
	r.ID = "red-1"
	return nil
}
func (m *mockRedemptionRepo) SetCode(ctx context.Context, id, code string) error { return nil }
func (m *mockRedemptionRepo) Delete(ctx context.Context, id string) error        { return nil }

type mockStarter struct {
	started []*domain.Redemption
}

func (m *mockStarter) StartRedemption(ctx context.Context, r *domain.Redemption) error {
	m.started = append(m.started, r)
	return nil
}

type mockLocationRepo struct {
	getFn func(ctx context.Context, lat, lon float64) (*domain.Location, error)
}

func (m *mockLocationRepo) GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	if m.getFn != nil {
		return m.getFn(ctx, lat, lon)
	}
	return nil, domain.ErrNotFound
}
func (m *mockLocationRepo) GetMany(ctx context.Context, points []domain.GeoPoint) (map[domain.GeoPoint]string, error) {
	return map[domain.GeoPoint]string{}, nil
}
func (m *mockLocationRepo) Upsert(ctx context.Context, loc *domain.Location) error { return nil }

type mockMonetaryRepo struct {
	createFn func(ctx context.Context, m *domain.MonetaryDonation) (bool, error)
	listFn   func(ctx context.Context, limit int) ([]domain.MonetaryDonation, error)
}

func (m *mockMonetaryRepo) Create(ctx context.Context, d *domain.MonetaryDonation) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	return true, nil
}
func (m *mockMonetaryRepo) List(ctx context.Context, limit int) ([]domain.MonetaryDonation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

type mockPredictionRepo struct{}

func (m *mockPredictionRepo) GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.MLPrediction, error) {
	return nil, domain.ErrNotFound
}
func (m *mockPredictionRepo) Upsert(ctx context.Context, p *domain.MLPrediction) error { return nil }
func (m *mockPredictionRepo) List(ctx context.Context, limit int) ([]domain.MLPrediction, error) {
	return nil, nil
}

// ---- Mock collaborators ----

type mockModel struct {
	invokeFn func(ctx context.Context, parts []aigateway.Part) (string, error)
}

func (m *mockModel) Invoke(ctx context.Context, parts []aigateway.Part) (string, error) {
	if m.invokeFn != nil {
		return m.invokeFn(ctx, parts)
	}
	return "", aigateway.ErrNoResponse
}

type mockPredictionSource struct {
	fn func(ctx context.Context) (*domain.MLPrediction, error)
}

func (m *mockPredictionSource) HighestNeed(ctx context.Context) (*domain.MLPrediction, error) {
	if m.fn != nil {
		return m.fn(ctx)
	}
	return nil, &domain.UpstreamError{Service: "ml service", Status: 503}
}

type mockPaymentProvider struct {
	createFn func(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutSession, error)
	parseFn  func(payload []byte, signature string) (*ports.CompletedCheckout, error)
}

func (m *mockPaymentProvider) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutSession, error) {
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &ports.CheckoutSession{ID: "cs_test", URL: "https://checkout.example/cs_test"}, nil
}
func (m *mockPaymentProvider) ParseWebhook(payload []byte, signature string) (*ports.CompletedCheckout, error) {
	if m.parseFn != nil {
		return m.parseFn(payload, signature)
	}
	return nil, nil
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }
