package domain

import "time"

// Event subjects published on the message bus.
const (
	SubjectDonationPosted     = "donations.posted"
	SubjectDonationClaimed    = "donations.claimed"
	SubjectDonationCompleted  = "donations.completed"
	SubjectDonationDeleted    = "donations.deleted"
	SubjectRequestPosted      = "requests.posted"
	SubjectPaymentCompleted   = "payments.completed"
	SubjectPredictionsUpdated = "predictions.updated"
	SubjectRewardsRedeemed    = "rewards.redeemed"
)

// DonationEvent describes a donation lifecycle change.
type DonationEvent struct {
	DonationID string         `json:"donation_id"`
	DonorID    string         `json:"donor_id"`
	ClaimedBy  *string        `json:"claimed_by,omitempty"`
	Status     DonationStatus `json:"status"`
	Title      string         `json:"title"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RequestEvent describes a newly posted request.
type RequestEvent struct {
	RequestID  string    `json:"request_id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	OccurredAt time.Time `json:"occurred_at"`
}
