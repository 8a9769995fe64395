// Package budget derives the output-length bounds requested from the
// summarization model for a given input size.
package budget

import (
	"errors"
	"fmt"
)

// ErrInputTooShort indicates that the input has too few tokens to request
// any compressed output (fewer than two tokens).
var ErrInputTooShort = errors.New("input too short to compress")

// LengthBudget is the (max, min) output-length constraint of one model call,
// in tokens. MinOutput < MaxOutput < input token count.
type LengthBudget struct {
	MaxOutput int
	MinOutput int
}

// Profile holds the caps and floors for one summarization stage.
type Profile struct {
	// Cap is the largest output ever requested.
	Cap int `yaml:"cap"`

	// Floor is the preferred minimum output when the maximum exceeds it.
	Floor int `yaml:"floor"`

	// AbsoluteFloor is the lowest minimum used once the maximum drops to or
	// below Floor.
	AbsoluteFloor int `yaml:"absolute_floor"`
}

// Validate checks that the profile can produce feasible budgets.
func (p Profile) Validate() error {
	if p.Cap < 1 {
		return fmt.Errorf("cap must be at least 1, got %d", p.Cap)
	}
	if p.Floor < 0 || p.AbsoluteFloor < 0 {
		return fmt.Errorf("floors must be non-negative, got floor=%d absolute_floor=%d", p.Floor, p.AbsoluteFloor)
	}
	if p.Floor >= p.Cap {
		return fmt.Errorf("floor %d must be below cap %d", p.Floor, p.Cap)
	}
	if p.AbsoluteFloor > p.Floor {
		return fmt.Errorf("absolute floor %d exceeds floor %d", p.AbsoluteFloor, p.Floor)
	}
	return nil
}

// Select returns the budget for an input of tokenCount tokens.
//
//	max = min(Cap, tokenCount-1)
//	min = Floor                         if max > Floor
//	      max(AbsoluteFloor, max-1)     otherwise
//
// min is then clamped below max so the request is always feasible.
func (p Profile) Select(tokenCount int) (LengthBudget, error) {
	if tokenCount < 2 {
		return LengthBudget{}, fmt.Errorf("%w: %d tokens", ErrInputTooShort, tokenCount)
	}

	maxOut := min(p.Cap, tokenCount-1)

	var minOut int
	if maxOut > p.Floor {
		minOut = p.Floor
	} else {
		minOut = max(p.AbsoluteFloor, maxOut-1)
	}
	if minOut >= maxOut {
		minOut = max(maxOut-1, 0)
	}

	return LengthBudget{MaxOutput: maxOut, MinOutput: minOut}, nil
}
