// Package circuitbreaker stops calling an upstream that keeps failing. Each
// summarization provider and the article page fetcher own one breaker, built
// on github.com/sony/gobreaker.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config describes one breaker.
type Config struct {
	// Name identifies the upstream in logs.
	Name string

	// MaxRequests is the number of trial calls let through while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration

	// OpenFor is how long the breaker rejects calls before a trial.
	OpenFor time.Duration

	// FailureRatio trips the breaker once reached over at least MinRequests calls.
	FailureRatio float64
	MinRequests  uint32

	// Ignore reports errors that say nothing about the upstream's health.
	// They count as successes. Nil counts every error as a failure.
	Ignore func(err error) bool
}

// ProviderConfig returns the breaker for a summarization provider. ignore
// usually classifies rejected prompts and canceled runs.
func ProviderConfig(name string, ignore func(error) bool) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		OpenFor:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
		Ignore:       ignore,
	}
}

// FetchConfig returns the breaker shared by article page downloads.
// Canceled downloads are ignored.
func FetchConfig() Config {
	return Config{
		Name:         "content-fetch",
		MaxRequests:  5,
		Interval:     time.Minute,
		OpenFor:      time.Minute,
		FailureRatio: 0.6,
		MinRequests:  5,
		Ignore: func(err error) bool {
			return errors.Is(err, context.Canceled)
		},
	}
}

// CircuitBreaker guards calls to one upstream.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
}

// New creates a closed breaker.
func New(cfg Config) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	if cfg.Ignore != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || cfg.Ignore(err)
		}
	}
	return &CircuitBreaker{breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn through cb and returns its typed result. A rejected call returns
// gobreaker.ErrOpenState or gobreaker.ErrTooManyRequests without running fn.
func Do[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := cb.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// IsRejected reports whether err means the breaker refused the call.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// State returns the current state.
func (cb *CircuitBreaker) State() gobreaker.State {
	return cb.breaker.State()
}
