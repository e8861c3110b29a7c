package usecases

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/marcdasilva/passtheplate/internal/core/domain"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/pkg/aigateway"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
)

const (
	maxInlineImageBytes = 4 << 20
	defaultImageMIME    = "image/jpeg"
)

var (
	describeShape = aigateway.Shape{
		{Name: "title", Kind: aigateway.String},
		{Name: "description", Kind: aigateway.String},
		{Name: "category", Kind: aigateway.String},
		{Name: "expiry_date", Kind: aigateway.Date},
		{Name: "estimated_value", Kind: aigateway.Number},
	}
	valueShape = aigateway.Shape{
		{Name: "estimated_value", Kind: aigateway.Number},
	}
	moderationShape = aigateway.Shape{
		{Name: "isAcceptable", Kind: aigateway.Bool, Default: true},
		{Name: "reason", Kind: aigateway.String},
	}
	statisticsShape = aigateway.Shape{
		{Name: "totalRequestsLast4Weeks", Kind: aigateway.Number},
		{Name: "donationGoalUSD", Kind: aigateway.Number},
		{Name: "peopleHelped", Kind: aigateway.Number},
	}

	dataURLMimeRe = regexp.MustCompile(`data:([^;,]+)`)
)

// AIService runs the model-backed features. Vision tasks and text tasks use
// separate endpoint chains.
type AIService struct {
	vision ports.Model
	text   ports.Model
	now    func() time.Time
}

// NewAIService creates a new AIService.
func NewAIService(vision, text ports.Model) *AIService {
	return &AIService{vision: vision, text: text, now: time.Now}
}

// DescribeImage proposes listing fields for a donation photo.
func (s *AIService) DescribeImage(ctx context.Context, image string) (*domain.ImageDescription, error) {
	if strings.TrimSpace(image) == "" {
		return nil, fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	img, err := inlineImage(image)
	if err != nil {
		return nil, err
	}
	parts := []aigateway.Part{aigateway.TextPart(describeImagePrompt(s.now())), img}
	return runTask[domain.ImageDescription](ctx, "describe_image", s.vision, describeShape, parts)
}

// EstimateValue returns a conservative dollar value for an item.
func (s *AIService) EstimateValue(ctx context.Context, in ItemInput) (*domain.ValueEstimate, error) {
	if strings.TrimSpace(in.Title) == "" && strings.TrimSpace(in.Description) == "" && in.Image == "" {
		return nil, fmt.Errorf("%w: title, description or image is required", domain.ErrInvalidInput)
	}
	parts, model, err := s.itemParts(in, estimateValuePrompt)
	if err != nil {
		return nil, err
	}
	return runTask[domain.ValueEstimate](ctx, "estimate_value", model, valueShape, parts)
}

// Moderate decides whether a posting may be published.
func (s *AIService) Moderate(ctx context.Context, in ItemInput) (*domain.ModerationVerdict, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, fmt.Errorf("%w: title and description are required", domain.ErrInvalidInput)
	}
	parts, model, err := s.itemParts(in, moderationPrompt)
	if err != nil {
		return nil, err
	}
	v, err := runTask[domain.ModerationVerdict](ctx, "moderate", model, moderationShape, parts)
	if err != nil {
		return nil, err
	}
	if v.IsAcceptable {
		v.Reason = ""
	}
	return v, nil
}

// EstimateStatistics projects impact figures from open request descriptions.
func (s *AIService) EstimateStatistics(ctx context.Context, descriptions []string) (*domain.StatisticsEstimate, error) {
	var kept []string
	for _, d := range descriptions {
		if d = strings.TrimSpace(d); d != "" {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("%w: descriptions array is required", domain.ErrInvalidInput)
	}
	parts := []aigateway.Part{aigateway.TextPart(statisticsPrompt(kept))}
	return runTask[domain.StatisticsEstimate](ctx, "estimate_statistics", s.text, statisticsShape, parts)
}

// NameCoordinates asks the text model for a place name.
func (s *AIService) NameCoordinates(ctx context.Context, lat, lon float64) (string, error) {
	raw, err := s.text.Invoke(ctx, []aigateway.Part{aigateway.TextPart(locationNamePrompt(lat, lon))})
	if err != nil {
		return "", err
	}
	name := aigateway.CleanText(raw)
	if name == "" {
		return "", aigateway.NoResponse("")
	}
	return name, nil
}

// itemParts builds the prompt for an item task, attaching the photo and
// routing to the vision chain when there is one.
func (s *AIService) itemParts(in ItemInput, prompt func(ItemInput, bool) string) ([]aigateway.Part, ports.Model, error) {
	if strings.TrimSpace(in.Image) == "" {
		return []aigateway.Part{aigateway.TextPart(prompt(in, false))}, s.text, nil
	}
	img, err := inlineImage(in.Image)
	if err != nil {
		return nil, nil, err
	}
	return []aigateway.Part{aigateway.TextPart(prompt(in, true)), img}, s.vision, nil
}

func runTask[T any](ctx context.Context, task string, model ports.Model, shape aigateway.Shape, parts []aigateway.Part) (*T, error) {
	raw, err := model.Invoke(ctx, parts)
	if err != nil {
		return nil, err
	}

	var out T
	strict, err := aigateway.Decode(raw, shape, &out)
	if err != nil {
		return nil, fmt.Errorf("decode %s reply: %w", task, err)
	}
	if !strict {
		metrics.AIParseFallbacks.WithLabelValues(task).Inc()
		slog.WarnContext(ctx, "model reply was not valid JSON, extracted fields by pattern", "task", task)
	}
	return &out, nil
}

// inlineImage turns a data URL (or bare base64) into an inline prompt part.
func inlineImage(image string) (aigateway.Part, error) {
	mimeType, data := ParseDataURL(image)
	if base64.StdEncoding.DecodedLen(len(data)) > maxInlineImageBytes {
		return aigateway.Part{}, fmt.Errorf("%w: image is too large, maximum size is 4MB", domain.ErrInvalidInput)
	}
	return aigateway.ImagePart(mimeType, data), nil
}

// ParseDataURL splits "data:image/png;base64,AAAA" into its MIME type and
// payload. Input without a header is returned as payload with image/jpeg.
func ParseDataURL(s string) (mimeType, data string) {
	mimeType = defaultImageMIME
	header, payload, found := strings.Cut(s, ",")
	if !found {
		return mimeType, strings.TrimSpace(s)
	}
	if m := dataURLMimeRe.FindStringSubmatch(header); m != nil {
		mimeType = m[1]
	}
	return mimeType, strings.TrimSpace(payload)
}
