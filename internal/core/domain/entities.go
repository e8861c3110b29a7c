package domain

import (
	"strings"
	"time"
)

// DonationStatus is the lifecycle state of an item donation.
type DonationStatus string

const (
	DonationAvailable DonationStatus = "available"
	DonationClaimed   DonationStatus = "claimed"
	DonationCompleted DonationStatus = "completed"
)

// Valid reports whether s is a known donation status.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationAvailable, DonationClaimed, DonationCompleted:
		return true
	}
	return false
}

// RequestStatus is the lifecycle state of a help request.
type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestClosed    RequestStatus = "closed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestOpen, RequestFulfilled, RequestClosed:
		return true
	}
	return false
}

// Profile is a user's public profile.
type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	AboutMe      string    `json:"about_me"`
	Email        string    `json:"email"`
	AvatarURL    *string   `json:"avatar_url"`
	Rating       *float64  `json:"rating"`
	Achievements []string  `json:"achievements"`
	Rewards      int       `json:"rewards"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ParseAchievements splits the stored comma-separated achievement list.
func ParseAchievements(s string) []string {
	out := []string{}
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// Donation is an item offered at a location.
type Donation struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    *string        `json:"category"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Address     *string        `json:"address"`
	ImageURL    *string        `json:"image_url"`
	ExpiryDate  *string        `json:"expiry_date"` // YYYY-MM-DD
	Status      DonationStatus `json:"status"`
	ClaimedBy   *string        `json:"claimed_by"`
	Distance    *float64       `json:"distance_km,omitempty"` // computed field
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Request is a located ask for help.
type Request struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Address     *string       `json:"address"`
	PhoneNumber *string       `json:"phone_number"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Key identifies the request during clustering.
func (r Request) Key() string { return r.ID }

// Coordinates returns the request position.
func (r Request) Coordinates() (float64, float64) { return r.Latitude, r.Longitude }

// Location caches a human-readable name for an exact coordinate pair.
type Location struct {
	ID           string    `json:"id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	LocationName string    `json:"location_name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MLPrediction is the ML service's highest-need location.
type MLPrediction struct {
	ID                 string    `json:"id,omitempty"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	LocationName       string    `json:"location_name"`
	PredictedNeedScore float64   `json:"predicted_need_score"`
	Confidence         float64   `json:"confidence"`
	Month              int       `json:"month"`
	Season             string    `json:"season"`
	FoodInsecurityRate *float64  `json:"food_insecurity_rate"`
	PovertyRate        *float64  `json:"poverty_rate"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// SameAs reports whether p carries the same prediction data as other. The
// socioeconomic rates are not compared.
func (p MLPrediction) SameAs(other MLPrediction) bool {
	return p.Latitude == other.Latitude &&
		p.Longitude == other.Longitude &&
		p.PredictedNeedScore == other.PredictedNeedScore &&
		p.Confidence == other.Confidence &&
		p.Month == other.Month &&
		p.Season == other.Season &&
		p.LocationName == other.LocationName
}

// MonetaryDonation records a completed card payment between two points.
type MonetaryDonation struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FromLatitude  float64   `json:"from_latitude"`
	FromLongitude float64   `json:"from_longitude"`
	ToLatitude    float64   `json:"to_latitude"`
	ToLongitude   float64   `json:"to_longitude"`
	Amount        float64   `json:"amount"` // USD
	SessionID     string    `json:"-"`      // checkout session, unique
	CreatedAt     time.Time `json:"created_at"`
}

// Connection is a monetary donation with both ends named, for the globe view.
type Connection struct {
	MonetaryDonation
	FromName string `json:"from_name"`
	ToName   string `json:"to_name"`
}

// GiftCardBrand is a redeemable gift card brand.
type GiftCardBrand string

var giftCardBrands = map[GiftCardBrand]struct{}{
	"starbucks": {}, "wawa": {}, "walmart": {},
	"target": {}, "dunkin": {}, "amazon": {},
}

// ParseGiftCardBrand normalizes s and checks it against the known brands.
func ParseGiftCardBrand(s string) (GiftCardBrand, bool) {
	b := GiftCardBrand(strings.ToLower(strings.TrimSpace(s)))
	_, ok := giftCardBrands[b]
	return b, ok
}

// Redemption is the outcome of a gift card redemption.
type Redemption struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	Brand             GiftCardBrand `json:"brand"`
	Cost              int           `json:"cost"`
	NewRewardsBalance int           `json:"newRewardsBalance"`
	Code              string        `json:"code,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}
