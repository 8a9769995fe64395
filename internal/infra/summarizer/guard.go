package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"scholar-abstracts/internal/resilience/circuitbreaker"
	"scholar-abstracts/internal/resilience/retry"
)

// Options configures a model-backed summarizer.
type Options struct {
	// Model overrides the provider default when non-empty.
	Model string

	// BaseURL overrides the provider endpoint when non-empty.
	BaseURL string

	// Timeout bounds one Summarize call, retries included. Zero means 60s.
	Timeout time.Duration

	// MaxAttempts is the number of tries per call. Values below 1 mean 1.
	MaxAttempts int

	// RateLimit caps calls per second. 0 disables limiting.
	RateLimit float64

	// Metrics receives per-call measurements. Nil discards them.
	Metrics SummaryMetricsRecorder
}

const defaultTimeout = 60 * time.Second

// ErrEmptyResponse indicates that the provider answered without any text.
// It is not retried.
var ErrEmptyResponse = errors.New("provider returned no text")

// guard wraps a single provider call with rate limiting, a circuit breaker,
// retries and a timeout.
type guard struct {
	service string
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Policy
	limiter *rate.Limiter
	timeout time.Duration
}

func newGuard(service string, opts Options) *guard {
	g := &guard{
		service: service,
		breaker: circuitbreaker.New(circuitbreaker.ProviderConfig(service, retry.ClientFault)),
		retry:   retry.ModelCallPolicy(opts.MaxAttempts),
		timeout: opts.Timeout,
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}
	if opts.RateLimit > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return g
}

// run executes call under the guard and returns its result.
func (g *guard) run(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var result string
	err := retry.Do(ctx, g.retry, func(ctx context.Context) error {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		out, err := circuitbreaker.Do(g.breaker, func() (string, error) {
			return call(ctx)
		})
		if err != nil {
			if circuitbreaker.IsRejected(err) {
				slog.WarnContext(ctx, "circuit breaker open, request rejected",
					slog.String("service", g.service),
					slog.String("state", g.breaker.State().String()))
				return fmt.Errorf("%s unavailable: %w", g.service, err)
			}
			return err
		}
		result = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s summarize failed: %w", g.service, err)
	}
	return result, nil
}
