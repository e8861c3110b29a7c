package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotAvailable        = errors.New("donation is no longer available")
	ErrInsufficientRewards = errors.New("insufficient rewards points")
	ErrConflict            = errors.New("conflict")
)

// UpstreamError is a failure reported by an external service, carrying the
// status it answered with.
type UpstreamError struct {
	Service string
	Status  int
	Detail  string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return e.Service + " request failed"
	}
	return e.Service + " request failed: " + e.Detail
}
