// Package aigateway talks to generative-model HTTP endpoints that speak the
// Gemini generateContent wire format. An invocation walks an ordered list of
// endpoints and returns the text of the first one that answers with 2xx.
package aigateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const defaultAttemptTimeout = 20 * time.Second

// InlineData is a base64 payload sent alongside the prompt text.
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Part is one element of the prompt: either text or inline data.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// TextPart builds a text prompt part.
func TextPart(text string) Part { return Part{Text: text} }

// ImagePart builds an inline image prompt part from base64 data.
func ImagePart(mimeType, data string) Part {
	return Part{InlineData: &InlineData{MIMEType: mimeType, Data: data}}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []Part `json:"parts"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Config configures a Gateway.
type Config struct {
	Endpoints      []string
	AttemptTimeout time.Duration
}

// Gateway invokes model endpoints in priority order.
type Gateway struct {
	client         *fasthttp.Client
	endpoints      []string
	attemptTimeout time.Duration
	tracer         trace.Tracer
}

// New creates a Gateway.
func New(cfg Config) *Gateway {
	timeout := cfg.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	return &Gateway{
		client: &fasthttp.Client{
			Name:                "passtheplate-aigateway",
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
		},
		endpoints:      cfg.Endpoints,
		attemptTimeout: timeout,
		tracer:         otel.Tracer("passtheplate/aigateway"),
	}
}

// GeminiEndpoints expands model paths such as "v1beta/models/gemini-2.5-flash"
// into generateContent URLs carrying the API key.
func GeminiEndpoints(baseURL, apiKey string, models []string) []string {
	base := strings.TrimRight(baseURL, "/")
	out := make([]string, 0, len(models))
	for _, m := range models {
		out = append(out, fmt.Sprintf("%s/%s:generateContent?key=%s",
			base, strings.Trim(m, "/"), url.QueryEscape(apiKey)))
	}
	return out
}

// Invoke runs the prompt against the configured endpoints.
func (g *Gateway) Invoke(ctx context.Context, parts []Part) (string, error) {
	return g.InvokeEndpoints(ctx, g.endpoints, parts)
}

// InvokeEndpoints runs the prompt against endpoints strictly in order and
// returns the first candidate text. Later endpoints are never contacted once
// one answers with a 2xx status.
func (g *Gateway) InvokeEndpoints(ctx context.Context, endpoints []string, parts []Part) (string, error) {
	if len(endpoints) == 0 {
		return "", ErrNoEndpoints
	}

	ctx, span := g.tracer.Start(ctx, "aigateway.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Int("ai.endpoints", len(endpoints)),
			attribute.Int("ai.parts", len(parts)),
		),
	)
	defer span.End()

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	var (
		lastStatus int
		lastDetail string
	)

	for i, endpoint := range endpoints {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return "", fmt.Errorf("ai gateway: %w", err)
		}

		label := endpointLabel(endpoint)
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.Int("ai.attempt", i+1),
			attribute.String("ai.endpoint", label),
		))

		status, respBody, err := g.post(ctx, endpoint, body)
		if err != nil {
			lastDetail = err.Error()
			metrics.AIGatewayAttempts.WithLabelValues(label, "transport_error").Inc()
			slog.WarnContext(ctx, "model endpoint error", "endpoint", label, "error", err)
			continue
		}

		lastStatus = status
		if status < 200 || status > 299 {
			lastDetail = errorDetail(status, respBody)
			metrics.AIGatewayAttempts.WithLabelValues(label, strconv.Itoa(status)).Inc()
			slog.WarnContext(ctx, "model endpoint failed", "endpoint", label, "status", status, "detail", lastDetail)
			continue
		}

		metrics.AIGatewayAttempts.WithLabelValues(label, "ok").Inc()
		span.SetAttributes(attribute.String("ai.endpoint", label))

		text, apiErr := extractText(respBody)
		if text == "" {
			noResp := NoResponse(label)
			if apiErr != "" {
				noResp.Message = apiErr
			}
			span.SetStatus(codes.Error, noResp.Message)
			return "", noResp
		}
		return text, nil
	}

	gwErr := exhausted(lastStatus, lastDetail)
	span.SetStatus(codes.Error, gwErr.Message)
	return "", gwErr
}

// post sends one attempt. The deadline is the sooner of the per-attempt
// timeout and the context deadline.
func (g *Gateway) post(ctx context.Context, endpoint string, body []byte) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline := time.Now().Add(g.attemptTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := g.client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return resp.StatusCode(), out, nil
}

// errorDetail prefers the JSON error envelope, then the raw body.
func errorDetail(status int, body []byte) string {
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != nil && envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		return "HTTP " + strconv.Itoa(status)
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "HTTP " + strconv.Itoa(status)
}

// extractText returns candidates[0].content.parts[0].text, or the message of
// an error envelope embedded in a successful reply.
func extractText(body []byte) (text, apiErr string) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", ""
	}
	if resp.Error != nil {
		if resp.Error.Message == "" {
			return "", "API returned an error"
		}
		return "", resp.Error.Message
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ""
	}
	return resp.Candidates[0].Content.Parts[0].Text, ""
}

// endpointLabel drops the query string so API keys never reach logs or metrics.
func endpointLabel(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "invalid"
	}
	return u.Host + u.Path
}
