package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	pkgconfig "scholar-abstracts/internal/pkg/config"
)

// Summarizer backends.
const (
	SummarizerClaude     = "claude"
	SummarizerOpenAI     = "openai"
	SummarizerExtractive = "extractive"
)

// SummarizerConfig configures the external summarization capability.
type SummarizerConfig struct {
	// Type selects the backend: claude, openai or extractive.
	Type string

	// APIKey authenticates with the backend. Unused by extractive.
	APIKey string

	// Model overrides the backend's default model when non-empty.
	Model string

	// BaseURL overrides the backend's API endpoint when non-empty.
	BaseURL string

	// Timeout bounds a single model call.
	Timeout time.Duration

	// MaxAttempts is the number of tries per call. 1 issues exactly one call.
	MaxAttempts int

	// RateLimit caps model calls per second across the process. 0 disables it.
	RateLimit float64
}

// LoadSummarizerConfig reads the summarizer configuration.
//
// Environment variables:
//   - SUMMARIZER_TYPE: claude|openai|extractive (default: claude)
//   - ANTHROPIC_API_KEY / OPENAI_API_KEY: required for claude / openai
//   - SUMMARIZER_MODEL, SUMMARIZER_BASE_URL: optional overrides
//   - SUMMARIZER_TIMEOUT: duration (default: 60s)
//   - SUMMARIZER_MAX_ATTEMPTS: 1-5 (default: 1)
//   - SUMMARIZER_RATE_LIMIT: calls per second (default: 0, unlimited)
//
// metrics may be nil.
func LoadSummarizerConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (SummarizerConfig, error) {
	fallbacks := 0
	warn := func(field, warning string) {
		fallbacks++
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
		if metrics != nil {
			metrics.RecordFallback(field)
		}
	}

	cfg := SummarizerConfig{
		Type:    pkgconfig.LoadEnvString("SUMMARIZER_TYPE", SummarizerClaude),
		Model:   pkgconfig.LoadEnvString("SUMMARIZER_MODEL", ""),
		BaseURL: pkgconfig.LoadEnvString("SUMMARIZER_BASE_URL", ""),
	}

	switch cfg.Type {
	case SummarizerClaude:
		cfg.APIKey = pkgconfig.LoadEnvString("ANTHROPIC_API_KEY", "")
	case SummarizerOpenAI:
		cfg.APIKey = pkgconfig.LoadEnvString("OPENAI_API_KEY", "")
	}

	timeout := pkgconfig.LoadEnvDuration("SUMMARIZER_TIMEOUT", 60*time.Second, pkgconfig.ValidatePositiveDuration)
	if timeout.FallbackApplied {
		warn("timeout", timeout.Warning)
	}
	cfg.Timeout = timeout.Value

	attempts := pkgconfig.LoadEnvInt("SUMMARIZER_MAX_ATTEMPTS", 1, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 5)
	})
	if attempts.FallbackApplied {
		warn("max_attempts", attempts.Warning)
	}
	cfg.MaxAttempts = attempts.Value

	rate := pkgconfig.LoadEnvFloat("SUMMARIZER_RATE_LIMIT", 0, pkgconfig.ValidateNonNegativeFloat)
	if rate.FallbackApplied {
		warn("rate_limit", rate.Warning)
	}
	cfg.RateLimit = rate.Value

	if metrics != nil {
		metrics.RecordLoad(fallbacks)
	}

	if err := cfg.Validate(); err != nil {
		return SummarizerConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration; API keys are required for remote backends.
func (c SummarizerConfig) Validate() error {
	var errs []error

	if err := pkgconfig.ValidateOneOf(c.Type, SummarizerClaude, SummarizerOpenAI, SummarizerExtractive); err != nil {
		errs = append(errs, fmt.Errorf("summarizer type: %w", err))
	}
	if (c.Type == SummarizerClaude || c.Type == SummarizerOpenAI) && c.APIKey == "" {
		errs = append(errs, fmt.Errorf("api key is required when SUMMARIZER_TYPE=%s", c.Type))
	}
	if err := pkgconfig.ValidatePositiveDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.MaxAttempts, 1, 5); err != nil {
		errs = append(errs, fmt.Errorf("max attempts: %w", err))
	}
	if err := pkgconfig.ValidateNonNegativeFloat(c.RateLimit); err != nil {
		errs = append(errs, fmt.Errorf("rate limit: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
