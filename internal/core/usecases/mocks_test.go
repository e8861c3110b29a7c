package usecases_test

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/aigateway"
)

var errCacheMiss = ports.ErrCacheMiss

// --- Repositories ---

type mockDonationRepo struct {
	createFn   func(ctx context.Context, d *domain.Donation) error
	getByIDFn  func(ctx context.Context, id string) (*domain.Donation, error)
	listFn     func(ctx context.Context, f ports.DonationFilter) ([]domain.Donation, error)
	claimFn    func(ctx context.Context, id, claimerID string) (*domain.Donation, error)
	completeFn func(ctx context.Context, id string) (*domain.Donation, error)
	setImageFn func(ctx context.Context, id, url string) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockDonationRepo) Create(ctx context.Context, d *domain.Donation) error {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	d.ID = "don-1"
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
	return nil, domain.ErrNotAvailable
}

func (m *mockDonationRepo) Complete(ctx context.Context, id string) (*domain.Donation, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, id)
	}
	return nil, domain.ErrNotAvailable
}

func (m *mockDonationRepo) SetImageURL(ctx context.Context, id, url string) error {
	if m.setImageFn != nil {
		return m.setImageFn(ctx, id, url)
	}
	return nil
}

func (m *mockDonationRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockRequestRepo struct {
	createFn  func(ctx context.Context, r *domain.Request) error
	getByIDFn func(ctx context.Context, id string) (*domain.Request, error)
	listFn    func(ctx context.Context, f ports.RequestFilter) ([]domain.Request, error)
	updateFn  func(ctx context.Context, id string, u ports.RequestUpdate) (*domain.Request, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockRequestRepo) Create(ctx context.Context, r *domain.Request) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	r.ID = "req-1"
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
	return &domain.Request{ID: id}, nil
}

func (m *mockRequestRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockProfileRepo struct {
	getByIDFn   func(ctx context.Context, id string) (*domain.Profile, error)
	existsFn    func(ctx context.Context, id string) (bool, error)
	upsertFn    func(ctx context.Context, p *domain.Profile) error
	setAvatarFn func(ctx context.Context, id string, url *string) error
	addFn       func(ctx context.Context, id string, points int) (int, error)
	debitFn     func(ctx context.Context, id string, cost int) (int, error)
	awardFn     func(ctx context.Context, donationID, profileID string, points int) (bool, error)
}

func (m *mockProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Profile{ID: id}, nil
}

func (m *mockProfileRepo) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return true, nil
}

func (m *mockProfileRepo) Upsert(ctx context.Context, p *domain.Profile) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, p)
	}
	return nil
}

func (m *mockProfileRepo) SetAvatarURL(ctx context.Context, id string, url *string) error {
	if m.setAvatarFn != nil {
		return m.setAvatarFn(ctx, id, url)
	}
	return nil
}

func (m *mockProfileRepo) AddRewards(ctx context.Context, id string, points int) (int, error) {
	if m.addFn != nil {
		return m.addFn(ctx, id, points)
	}
	return points, nil
}

func (m *mockProfileRepo) DebitRewards(ctx context.Context, id string, cost int) (int, error) {
	if m.debitFn != nil {
		return m.debitFn(ctx, id, cost)
	}
	return 0, nil
}

func (m *mockProfileRepo) AwardForDonation(ctx context.Context, donationID, profileID string, points int) (bool, error) {
	if m.awardFn != nil {
		return m.awardFn(ctx, donationID, profileID, points)
	}
	return true, nil
}

type mockLocationRepo struct {
	mu       sync.Mutex
	names    map[domain.GeoPoint]string
	getErr   error
	upserted []domain.Location
	getMany  int
}

func newMockLocationRepo() *mockLocationRepo {
	return &mockLocationRepo{names: map[domain.GeoPoint]string{}}
}

func (m *mockLocationRepo) GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	name, ok := m.names[domain.GeoPoint{Lat: lat, Lon: lon}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Location{Latitude: lat, Longitude: lon, LocationName: name}, nil
}

func (m *mockLocationRepo) GetMany(ctx context.Context, points []domain.GeoPoint) (map[domain.GeoPoint]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getMany++
	out := map[domain.GeoPoint]string{}
	for _, p := range points {
		if name, ok := m.names[p]; ok {
			out[p] = name
		}
	}
	return out, nil
}

func (m *mockLocationRepo) Upsert(ctx context.Context, loc *domain.Location) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserted = append(m.upserted, *loc)
	m.names[domain.GeoPoint{Lat: loc.Latitude, Lon: loc.Longitude}] = loc.LocationName
	return nil
}

type mockPredictionRepo struct {
	stored    *domain.MLPrediction
	getErr    error
	upsertErr error
	upserts   int
}

func (m *mockPredictionRepo) GetByCoordinates(ctx context.Context, lat, lon float64) (*domain.MLPrediction, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.stored == nil || m.stored.Latitude != lat || m.stored.Longitude != lon {
		return nil, domain.ErrNotFound
	}
	cp := *m.stored
	return &cp, nil
}

func (m *mockPredictionRepo) Upsert(ctx context.Context, p *domain.MLPrediction) error {
	m.upserts++
	if m.upsertErr != nil {
		return m.upsertErr
	}
	cp := *p
	m.stored = &cp
	return nil
}

func (m *mockPredictionRepo) List(ctx context.Context, limit int) ([]domain.MLPrediction, error) {
	if m.stored == nil {
		return nil, nil
	}
	return []domain.MLPrediction{*m.stored}, nil
}

type mockMonetaryRepo struct {
	created  []domain.MonetaryDonation
	sessions map[string]bool
	createFn func(ctx context.Context, m *domain.MonetaryDonation) (bool, error)
	list     []domain.MonetaryDonation
}

func (m *mockMonetaryRepo) Create(ctx context.Context, d *domain.MonetaryDonation) (bool, error) {
	if m.createFn != nil {
		return m.createFn(ctx, d)
	}
	if m.sessions == nil {
		m.sessions = map[string]bool{}
	}
	if m.sessions[d.SessionID] {
		return false, nil
	}
	m.sessions[d.SessionID] = true
	m.created = append(m.created, *d)
	return true, nil
}

func (m *mockMonetaryRepo) List(ctx context.Context, limit int) ([]domain.MonetaryDonation, error) {
	return m.list, nil
}

type mockRedemptionRepo struct {
	created []domain.Redemption
	deleted []string
	err     error
}

func (m *mockRedemptionRepo) Create(ctx context.Context, r *domain.Redemption) error {
	if m.err != nil {
		return m.err
	}
	r.ID = "red-1"
	m.created = append(m.created, *r)
	return nil
}

func (m *mockRedemptionRepo) SetCode(ctx context.Context, id, code string) error { return nil }

func (m *mockRedemptionRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// --- Services ---

type mockModel struct {
	calls    atomic.Int32
	invokeFn func(ctx context.Context, parts []aigateway.Part) (string, error)
}

func (m *mockModel) Invoke(ctx context.Context, parts []aigateway.Part) (string, error) {
	m.calls.Add(1)
	if m.invokeFn != nil {
		return m.invokeFn(ctx, parts)
	}
	return "", aigateway.ErrNoResponse
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type recordingPublisher struct {
	mu          sync.Mutex
	donations   map[string][]domain.DonationEvent
	requests    []domain.RequestEvent
	payments    []domain.MonetaryDonation
	predictions []domain.MLPrediction
	redemptions []domain.Redemption
	err         error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{donations: map[string][]domain.DonationEvent{}}
}

func (p *recordingPublisher) PublishDonation(ctx context.Context, subject string, ev *domain.DonationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.donations[subject] = append(p.donations[subject], *ev)
	return p.err
}

func (p *recordingPublisher) PublishRequest(ctx context.Context, ev *domain.RequestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, *ev)
	return p.err
}

func (p *recordingPublisher) PublishPayment(ctx context.Context, m *domain.MonetaryDonation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments = append(p.payments, *m)
	return p.err
}

func (p *recordingPublisher) PublishPrediction(ctx context.Context, pr *domain.MLPrediction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predictions = append(p.predictions, *pr)
	return p.err
}

func (p *recordingPublisher) PublishRedemption(ctx context.Context, r *domain.Redemption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.redemptions = append(p.redemptions, *r)
	return p.err
}

type mockStorage struct {
	uploads []string
	removed []string
	err     error
}

func (s *mockStorage) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, size int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, bucket+"/"+path)
	return "https://cdn.example.com/storage/v1/object/public/" + bucket + "/" + path, nil
}

func (s *mockStorage) Remove(ctx context.Context, bucket, path string) error {
	s.removed = append(s.removed, bucket+"/"+path)
	return nil
}

type mockStarter struct {
	started []domain.Redemption
	err     error
}

func (s *mockStarter) StartRedemption(ctx context.Context, r *domain.Redemption) error {
	if s.err != nil {
		return s.err
	}
	s.started = append(s.started, *r)
	return nil
}

type mockSource struct {
	calls int
	fn    func(ctx context.Context) (*domain.MLPrediction, error)
}

func (s *mockSource) HighestNeed(ctx context.Context) (*domain.MLPrediction, error) {
	s.calls++
	return s.fn(ctx)
}

type mockProvider struct {
	lastCheckout ports.CheckoutRequest
	parseFn      func(payload []byte, signature string) (*ports.CompletedCheckout, error)
}

func (p *mockProvider) CreateCheckout(ctx context.Context, req ports.CheckoutRequest) (*ports.CheckoutSession, error) {
	p.lastCheckout = req
	return &ports.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

func (p *mockProvider) ParseWebhook(payload []byte, signature string) (*ports.CompletedCheckout, error) {
	return p.parseFn(payload, signature)
}

func ptr[T any](v T) *T { return &v }
