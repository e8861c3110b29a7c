package domain

// ImageDescription is the structured reading of a donation photo.
type ImageDescription struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Category       string  `json:"category"`
	ExpiryDate     *string `json:"expiry_date"`
	EstimatedValue float64 `json:"estimated_value"`
}

// ValueEstimate is a conservative USD value for an item.
type ValueEstimate struct {
	EstimatedValue float64 `json:"estimated_value"`
}

// ModerationVerdict decides whether a posting may be published.
type ModerationVerdict struct {
	IsAcceptable bool   `json:"isAcceptable"`
	Reason       string `json:"reason"`
}

// StatisticsEstimate summarizes projected impact of open requests.
type StatisticsEstimate struct {
	TotalRequestsLast4Weeks float64 `json:"totalRequestsLast4Weeks"`
	DonationGoalUSD         float64 `json:"donationGoalUSD"`
	PeopleHelped            float64 `json:"peopleHelped"`
}
