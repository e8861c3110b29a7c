// Package storage uploads files to an S3-style object store exposed over the
// Supabase Storage REST API.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
)

const serviceName = "storage"

// Client implements ports.ObjectStorage.
type Client struct {
	http       *fasthttp.Client
	baseURL    string
	serviceKey string
	timeout    time.Duration
}

// New creates a Client for the project at baseURL, authenticated with serviceKey.
func New(baseURL, serviceKey string) *Client {
	return &Client{
		http: &fasthttp.Client{
			Name:                "passtheplate-storage",
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		timeout:    30 * time.Second,
	}
}

// PublicURL is where an uploaded object can be fetched without credentials.
func (c *Client) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, bucket, escapePath(path))
}

// Upload stores body at bucket/path and returns its public URL. Existing
// objects are never overwritten.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader, size int) (string, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, bucket, escapePath(path)))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")
	c.authorize(req)
	req.SetBodyStream(body, size)

	if err := c.do(ctx, req); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	return c.PublicURL(bucket, path), nil
}

// Remove deletes bucket/path. Removing a missing object is not an error.
func (c *Client) Remove(ctx context.Context, bucket, path string) error {
	payload, err := json.Marshal(map[string][]string{"prefixes": {path}})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(fmt.Sprintf("%s/storage/v1/object/%s", c.baseURL, bucket))
	req.Header.SetMethod(fasthttp.MethodDelete)
	req.Header.SetContentType("application/json")
	c.authorize(req)
	req.SetBody(payload)

	if err := c.do(ctx, req); err != nil {
		return fmt.Errorf("remove %s/%s: %w", bucket, path, err)
	}
	return nil
}

func (c *Client) authorize(req *fasthttp.Request) {
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request) error {
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return err
	}

	status := resp.StatusCode()
	if status >= 200 && status <= 299 {
		return nil
	}
	return &domain.UpstreamError{Service: serviceName, Status: status, Detail: errorMessage(resp.Body())}
}

func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
