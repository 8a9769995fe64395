// Package config provides reusable environment loading, validation, and
// configuration metrics helpers.
//
// Loaders follow a fail-open strategy: a missing variable yields the default
// silently, and an unparsable or invalid value yields the default together
// with a warning so the caller can log it and record a fallback metric.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult is the outcome of loading one environment variable.
type LoadResult[T any] struct {
	// Value is the loaded value, or the default on fallback.
	Value T

	// Warning describes why a fallback was applied. Empty otherwise.
	Warning string

	// FallbackApplied is true when the variable was set but rejected.
	FallbackApplied bool
}

// LoadEnvString returns the variable or defaultValue when unset or empty.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvInt loads an integer, applying validator when non-nil.
//
// Example:
//
//	res := LoadEnvInt("PIPELINE_MAX_CHUNKS", 5, func(v int) error {
//	    return ValidateIntRange(v, 1, 100)
//	})
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	return loadEnv(envKey, defaultValue, strconv.Atoi, validator)
}

// LoadEnvFloat loads a float64, applying validator when non-nil.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) LoadResult[float64] {
	parse := func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
	return loadEnv(envKey, defaultValue, parse, validator)
}

// LoadEnvDuration loads a time.ParseDuration value, applying validator when non-nil.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	return loadEnv(envKey, defaultValue, time.ParseDuration, validator)
}

// LoadEnvWithFallback loads a string, applying validator when non-nil.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	identity := func(s string) (string, error) { return s, nil }
	return loadEnv(envKey, defaultValue, identity, validator)
}

func loadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err != nil {
		return LoadResult[T]{
			Value:           defaultValue,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}

	if validator != nil {
		if err := validator(value); err != nil {
			return LoadResult[T]{
				Value:           defaultValue,
				Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", envKey, raw, err, defaultValue),
				FallbackApplied: true,
			}
		}
	}

	return LoadResult[T]{Value: value}
}
