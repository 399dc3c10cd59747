// Package gemini provides a text generator backed by the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"mindflow_backend/internal/feature/chat/usecase"
	"mindflow_backend/internal/shared/ratelimiter"
)

const (
	// DefaultModel is the default Gemini model.
	DefaultModel = "gemini-2.5-flash"
)

// Config configures the Gemini client.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Empty means the public endpoint.
	BaseURL string
}

// GeminiGenerator generates text with the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	limiter ratelimiter.Waiter
}

// Compile-time check to ensure GeminiGenerator implements TextGenerator.
var _ usecase.TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a client authenticated by API key.
// httpClient carries the request timeout; limiter paces outbound calls and may be nil.
func NewGeminiGenerator(ctx context.Context, cfg Config, httpClient *http.Client, limiter ratelimiter.Waiter) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, limiter: limiter}, nil
}

// Generate sends prompt to the model and returns the text of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}
