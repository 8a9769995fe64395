package summarizer

import (
	"context"
	"fmt"

	"scholar-abstracts/internal/budget"
	"scholar-abstracts/internal/config"
	"scholar-abstracts/internal/tokenizer"
)

// Summarizer is the capability every backend in this package provides.
type Summarizer interface {
	Summarize(ctx context.Context, text string, b budget.LengthBudget) (string, error)
}

// New builds the backend selected by cfg.Type. codec is only used by the
// extractive backend.
func New(cfg config.SummarizerConfig, codec tokenizer.Codec, metrics SummaryMetricsRecorder) (Summarizer, error) {
	opts := Options{
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		RateLimit:   cfg.RateLimit,
		Metrics:     metrics,
	}

	switch cfg.Type {
	case config.SummarizerClaude:
		return NewClaude(cfg.APIKey, opts), nil
	case config.SummarizerOpenAI:
		return NewOpenAI(cfg.APIKey, opts), nil
	case config.SummarizerExtractive:
		if codec == nil {
			return nil, fmt.Errorf("extractive summarizer: %w", tokenizer.ErrCodecUnavailable)
		}
		return NewExtractive(codec), nil
	default:
		return nil, fmt.Errorf("%w: unknown summarizer type %q", config.ErrInvalidConfig, cfg.Type)
	}
}
