package config

import (
	"fmt"
	"slices"
	"time"
)

// ValidateIntRange validates that value is within [min, max].
//
// Example:
//
//	err := ValidateIntRange(1024, 16, 100000) // nil
//	err := ValidateIntRange(0, 1, 100)        // "value 0 is below minimum 1"
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidatePositiveDuration validates that duration is strictly positive.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}

// ValidateNonNegativeFloat validates that value is >= 0.
func ValidateNonNegativeFloat(value float64) error {
	if value < 0 {
		return fmt.Errorf("value must be non-negative, got %v", value)
	}
	return nil
}

// ValidateOneOf validates that value is one of allowed.
func ValidateOneOf(value string, allowed ...string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("value %q must be one of %v", value, allowed)
	}
	return nil
}
