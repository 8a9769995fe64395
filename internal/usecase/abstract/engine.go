package abstract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scholar-abstracts/internal/budget"
)

// Summarizer is the external summarization capability. Implementations should
// decode deterministically and return at most b.MaxOutput tokens.
type Summarizer interface {
	Summarize(ctx context.Context, text string, b budget.LengthBudget) (string, error)
}

// SentenceExtractor returns the first n sentences of a text.
type SentenceExtractor interface {
	Extract(text string, n int) string
}

// FallbackReason explains why a unit was summarized extractively.
type FallbackReason string

// Fallback reasons. ReasonNone means the model output was used.
const (
	ReasonNone             FallbackReason = ""
	ReasonBelowThreshold   FallbackReason = "below_threshold"
	ReasonShortInput       FallbackReason = "short_input"
	ReasonBudgetInfeasible FallbackReason = "budget_infeasible"
	ReasonModelError       FallbackReason = "model_error"
	ReasonEmptyOutput      FallbackReason = "empty_output"
)

// Unit is one piece of text handed to the engine: a chunk or the combined
// chunk summaries.
type Unit struct {
	Text              string
	TokenCount        int
	Profile           budget.Profile
	FallbackSentences int
}

// Outcome is the engine's result for one unit.
type Outcome struct {
	// Text is the trimmed model output, or the extractive fallback.
	Text string

	// Budget is the length budget requested from the model. Zero when no
	// budget could be selected.
	Budget budget.LengthBudget

	// Reason is ReasonNone when the model output was used.
	Reason FallbackReason

	// Err is the cause of the fallback, if any.
	Err error
}

// Fallback reports whether the extractive fallback produced Text.
func (o Outcome) Fallback() bool {
	return o.Reason != ReasonNone
}

// Engine makes exactly one model call per unit and converts every failure into
// an extractive fallback over the same text. Errors never leave the engine.
type Engine struct {
	summarizer Summarizer
	extractor  SentenceExtractor
}

// NewEngine creates an Engine.
func NewEngine(summarizer Summarizer, extractor SentenceExtractor) *Engine {
	return &Engine{summarizer: summarizer, extractor: extractor}
}

// Summarize summarizes u with the budget selected from u.Profile.
func (e *Engine) Summarize(ctx context.Context, u Unit) Outcome {
	b, err := u.Profile.Select(u.TokenCount)
	if err != nil {
		if errors.Is(err, budget.ErrInputTooShort) {
			return e.fallback(u, b, ReasonShortInput, err)
		}
		return e.fallback(u, b, ReasonBudgetInfeasible, err)
	}
	if b.MaxOutput < 1 || b.MinOutput >= b.MaxOutput {
		return e.fallback(u, b, ReasonBudgetInfeasible,
			fmt.Errorf("%w: max=%d min=%d", ErrBudgetInfeasible, b.MaxOutput, b.MinOutput))
	}

	out, err := e.summarizer.Summarize(ctx, u.Text, b)
	if err != nil {
		return e.fallback(u, b, ReasonModelError, err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return e.fallback(u, b, ReasonEmptyOutput, ErrEmptyOutput)
	}
	return Outcome{Text: out, Budget: b}
}

// Extract returns the extractive fallback for u without calling the model.
func (e *Engine) Extract(u Unit, reason FallbackReason) Outcome {
	return e.fallback(u, budget.LengthBudget{}, reason, nil)
}

func (e *Engine) fallback(u Unit, b budget.LengthBudget, reason FallbackReason, cause error) Outcome {
	return Outcome{
		Text:   e.extractor.Extract(u.Text, u.FallbackSentences),
		Budget: b,
		Reason: reason,
		Err:    cause,
	}
}
