package di

import (
	"context"
	"log/slog"
	"time"

	"mindflow_backend/internal/feature/chat/adapters/gemini"
	"mindflow_backend/internal/feature/chat/usecase"
	"mindflow_backend/internal/platform/config"
	infrahttp "mindflow_backend/internal/platform/http"
	"mindflow_backend/internal/shared/ratelimiter"
)

// NewTextGenerator creates the Gemini generator with its own HTTP client and pacing.
// It returns nil when no API key is configured, which leaves chat disabled.
func NewTextGenerator(ctx context.Context, cfg config.GeminiConfig) (usecase.TextGenerator, error) {
	if cfg.APIKey == "" {
		slog.Warn("GEMINI_API_KEY is not set. Chat is disabled.")
		return nil, nil
	}

	gen, err := gemini.NewGeminiGenerator(ctx, gemini.Config{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
	}, infrahttp.NewHTTPClient(cfg.Timeout), ratelimiter.NewRateLimiter(cfg.RPM, time.Minute))
	if err != nil {
		return nil, err
	}
	return gen, nil
}
