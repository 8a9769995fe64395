// Package retry repeats summarization model calls that failed for a transient
// reason: provider overload, rate limiting, server errors or network timeouts.
// Anything caused by the request itself (a rejected prompt, a bad key, an
// infeasible budget) fails on the first attempt.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/sashabaranov/go-openai"

	"scholar-abstracts/internal/budget"
	"scholar-abstracts/internal/observability/logging"
)

// ErrAttemptsExhausted is wrapped together with the last error once every
// attempt allowed by a Policy has failed.
var ErrAttemptsExhausted = errors.New("model call attempts exhausted")

// Policy bounds the retries of one model call.
type Policy struct {
	// MaxAttempts counts the first call. 1 disables retries.
	MaxAttempts int

	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps every wait, including one requested through Retry-After.
	MaxDelay time.Duration

	// Multiplier grows the wait after each failed attempt.
	Multiplier float64

	// Jitter adds up to this fraction of the wait at random.
	Jitter float64
}

// ModelCallPolicy returns the policy for summarization calls.
// maxAttempts below 1 means a single call.
func ModelCallPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts:  max(maxAttempts, 1),
		InitialDelay: 2 * time.Second,
		MaxDelay:     20 * time.Second,
		Multiplier:   2,
		Jitter:       0.2,
	}
}

// backoff returns the wait after the given failed attempt (1-based).
func (p Policy) backoff(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(max(p.Multiplier, 1), float64(attempt-1))
	if p.Jitter > 0 {
		d += d * min(p.Jitter, 1) * rand.Float64() // #nosec G404 -- jitter only
	}
	if p.MaxDelay > 0 {
		d = min(d, float64(p.MaxDelay))
	}
	return time.Duration(d)
}

// Do runs call until it succeeds, fails permanently, ctx is done, or
// p.MaxAttempts calls were made. A permanent failure is returned unchanged.
func Do(ctx context.Context, p Policy, call func(ctx context.Context) error) error {
	logger := logging.FromContext(ctx)
	attempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = call(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.Info("model call succeeded after retry", slog.Int("attempt", attempt))
			}
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		wait := p.backoff(attempt)
		if requested := retryAfter(lastErr); requested > 0 {
			if p.MaxDelay > 0 {
				requested = min(requested, p.MaxDelay)
			}
			wait = max(wait, requested)
		}
		logger.Warn("model call failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Int("status", StatusCode(lastErr)),
			slog.Duration("wait", wait),
			slog.Any("error", lastErr))

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w (last error: %v)", ctx.Err(), lastErr)
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, lastErr)
}

// StatusCode returns the HTTP status carried by a provider SDK error, or 0
// when err did not come from a provider response.
func StatusCode(err error) int {
	var claudeErr *anthropic.Error
	if errors.As(err, &claudeErr) {
		return claudeErr.StatusCode
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// Retryable reports whether repeating the failed model call can succeed.
func Retryable(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, budget.ErrInputTooShort):
		return false
	}

	if status := StatusCode(err); status != 0 {
		return transientStatus(status)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// ClientFault reports whether err was caused by the caller rather than by the
// provider: a canceled run or a request the provider rejected as invalid.
// Such failures say nothing about provider health.
func ClientFault(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, budget.ErrInputTooShort) {
		return true
	}
	status := StatusCode(err)
	return status >= 400 && status < 500 && !transientStatus(status)
}

// transientStatus covers timeouts, conflicts, rate limiting and every 5xx,
// including Anthropic's 529 overloaded.
func transientStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusConflict, http.StatusTooManyRequests:
		return true
	}
	return status >= 500
}

// retryAfter returns the wait requested by an Anthropic Retry-After header.
func retryAfter(err error) time.Duration {
	var claudeErr *anthropic.Error
	if !errors.As(err, &claudeErr) || claudeErr.Response == nil {
		return 0
	}
	secs, convErr := strconv.Atoi(claudeErr.Response.Header.Get("Retry-After"))
	if convErr != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
