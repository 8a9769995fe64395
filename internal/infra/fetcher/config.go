package fetcher

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	pkgconfig "scholar-abstracts/internal/pkg/config"
)

// ContentFetchConfig controls downloading article pages for records that
// carry a link but no full text.
//
// Security settings:
//   - DenyPrivateIPs: blocks private IP addresses (SSRF prevention)
//   - MaxBodySize: bounds memory used per response
//   - MaxRedirects: bounds redirect chains
//   - Timeout: bounds slow servers
type ContentFetchConfig struct {
	// Timeout is the maximum duration for a single HTTP request.
	// Default: 10s
	Timeout time.Duration

	// Parallelism is the maximum number of concurrent page downloads.
	// Default: 4
	Parallelism int

	// MaxBodySize is the maximum HTTP response body size in bytes, enforced
	// while reading rather than from Content-Length.
	// Default: 10485760 (10MB)
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow. Each
	// redirect target is validated like the original URL.
	// Default: 5
	MaxRedirects int

	// DenyPrivateIPs rejects URLs resolving to private/loopback/link-local IPs.
	// Default: true
	DenyPrivateIPs bool
}

// DefaultConfig returns the default configuration for content fetching.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Timeout:        10 * time.Second,
		Parallelism:    4,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate checks that the configuration values are safe.
//
// Validation rules:
//   - Timeout: > 0
//   - Parallelism: 1-50
//   - MaxBodySize: 1KB-100MB
//   - MaxRedirects: 0-10
func (c ContentFetchConfig) Validate() error {
	var errs []error

	if err := pkgconfig.ValidatePositiveDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.Parallelism, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("parallelism: %w", err))
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		errs = append(errs, fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize))
	}
	if err := pkgconfig.ValidateIntRange(c.MaxRedirects, 0, 10); err != nil {
		errs = append(errs, fmt.Errorf("max redirects: %w", err))
	}

	return errors.Join(errs...)
}

// LoadConfigFromEnv loads the configuration from environment variables.
// Invalid values fall back to the defaults with a warning.
//
// Environment variables:
//   - CONTENT_FETCH_TIMEOUT: duration, e.g. "10s" (default: 10s)
//   - CONTENT_FETCH_PARALLELISM: 1-50 (default: 4)
//   - CONTENT_FETCH_MAX_BODY_SIZE_MB: 1-100 (default: 10)
//   - CONTENT_FETCH_MAX_REDIRECTS: 0-10 (default: 5)
//   - CONTENT_FETCH_DENY_PRIVATE_IPS: "true" or "false" (default: true)
//
// metrics may be nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) ContentFetchConfig {
	cfg := DefaultConfig()
	fallbacks := 0
	note := func(field string, applied bool, warning string) {
		if !applied {
			return
		}
		fallbacks++
		logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
		if metrics != nil {
			metrics.RecordFallback(field)
		}
	}

	timeout := pkgconfig.LoadEnvDuration("CONTENT_FETCH_TIMEOUT", cfg.Timeout, pkgconfig.ValidatePositiveDuration)
	note("timeout", timeout.FallbackApplied, timeout.Warning)
	cfg.Timeout = timeout.Value

	parallelism := pkgconfig.LoadEnvInt("CONTENT_FETCH_PARALLELISM", cfg.Parallelism, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 50)
	})
	note("parallelism", parallelism.FallbackApplied, parallelism.Warning)
	cfg.Parallelism = parallelism.Value

	bodyMB := pkgconfig.LoadEnvInt("CONTENT_FETCH_MAX_BODY_SIZE_MB", int(cfg.MaxBodySize>>20), func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 100)
	})
	note("max_body_size", bodyMB.FallbackApplied, bodyMB.Warning)
	cfg.MaxBodySize = int64(bodyMB.Value) << 20

	redirects := pkgconfig.LoadEnvInt("CONTENT_FETCH_MAX_REDIRECTS", cfg.MaxRedirects, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 0, 10)
	})
	note("max_redirects", redirects.FallbackApplied, redirects.Warning)
	cfg.MaxRedirects = redirects.Value

	deny := pkgconfig.LoadEnvWithFallback("CONTENT_FETCH_DENY_PRIVATE_IPS", "true", func(v string) error {
		return pkgconfig.ValidateOneOf(v, "true", "false")
	})
	note("deny_private_ips", deny.FallbackApplied, deny.Warning)
	cfg.DenyPrivateIPs = deny.Value == "true"

	if metrics != nil {
		metrics.RecordLoad(fallbacks)
	}
	return cfg
}
