// Package mlapi is the client for the need-prediction service.
package mlapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

const serviceName = "ml service"

// Client implements ports.PredictionSource.
type Client struct {
	http    *fasthttp.Client
	baseURL string
	timeout time.Duration
}

// New creates a Client for the service at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			Name:                "passtheplate-mlapi",
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// HighestNeed returns the location the model currently scores highest.
// Non-2xx answers come back as *domain.UpstreamError with the service's status.
func (c *Client) HighestNeed(ctx context.Context) (*domain.MLPrediction, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/highest-need")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("%s: %w", serviceName, err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &domain.UpstreamError{
			Service: serviceName,
			Status:  status,
			Detail:  strings.TrimSpace(string(resp.Body())),
		}
	}

	var p domain.MLPrediction
	if err := json.Unmarshal(resp.Body(), &p); err != nil {
		return nil, fmt.Errorf("decode highest need: %w", err)
	}
	return &p, nil
}
