// Package gemini builds the vision and text model chains from configuration.
package gemini

import (
	"context"
	"net/http"

	"github.com/marcdasilva/passtheplate/internal/pkg/aigateway"
	"github.com/marcdasilva/passtheplate/internal/pkg/config"
)

const notConfiguredMsg = "AI API key not configured. Set PASSTHEPLATE_AI_API_KEY."

// Model is one fallback chain of generateContent endpoints.
type Model struct {
	gw      *aigateway.Gateway
	enabled bool
}

// Invoke implements ports.Model.
func (m *Model) Invoke(ctx context.Context, parts []aigateway.Part) (string, error) {
	if !m.enabled {
		return "", &aigateway.Error{
			Status:  http.StatusInternalServerError,
			Message: notConfiguredMsg,
			Err:     aigateway.ErrNoEndpoints,
		}
	}
	return m.gw.Invoke(ctx, parts)
}

// Models holds the two chains the AI features use.
type Models struct {
	Vision *Model
	Text   *Model
}

// New builds both chains. Without an API key every call fails fast with a
// 500 and no request leaves the process.
func New(cfg config.AIConfig) Models {
	enabled := cfg.APIKey != ""
	build := func(models []string) *Model {
		return &Model{
			gw: aigateway.New(aigateway.Config{
				Endpoints:      aigateway.GeminiEndpoints(cfg.BaseURL, cfg.APIKey, models),
				AttemptTimeout: cfg.AttemptTimeoutDuration(),
			}),
			enabled: enabled,
		}
	}
	return Models{Vision: build(cfg.VisionModels), Text: build(cfg.TextModels)}
}
