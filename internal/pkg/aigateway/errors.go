package aigateway

import (
	"errors"
	"net/http"
)

var (
	// ErrUpstream marks an invocation where every endpoint failed.
	ErrUpstream = errors.New("all model endpoints failed")
	// ErrNoResponse marks a 2xx reply that carried no candidate text.
	ErrNoResponse = errors.New("no response from AI")
	// ErrNoEndpoints is returned when Invoke is given an empty endpoint list.
	ErrNoEndpoints = errors.New("no model endpoints configured")
)

const (
	msgAllFailed  = "All model endpoints failed. Please check your API key and try again."
	msgNoResponse = "No response from AI. Please try again."
)

// Error is the single failure reported by an invocation. Message is what the
// caller should surface to the client and Status the HTTP status to use.
type Error struct {
	Status   int
	Message  string
	Endpoint string // set when a specific endpoint answered without text
	Err      error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NoResponse reports a reply that carried no usable text.
func NoResponse(endpoint string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msgNoResponse, Endpoint: endpoint, Err: ErrNoResponse}
}

func exhausted(lastStatus int, lastDetail string) *Error {
	if lastStatus == 0 {
		lastStatus = http.StatusInternalServerError
	}
	if lastDetail == "" {
		lastDetail = msgAllFailed
	}
	return &Error{Status: lastStatus, Message: lastDetail, Err: ErrUpstream}
}
