// Package abstract implements the hierarchical abstract pipeline: per-chunk
// summarization with extractive fallback, reduction of chunk summaries into a
// final abstract, and the batch driver that makes the pipeline total.
package abstract

import "errors"

// Sentinel errors for abstract use case operations.
var (
	// ErrEmptyOutput indicates that the summarizer returned only whitespace.
	ErrEmptyOutput = errors.New("summarizer returned empty output")

	// ErrBudgetInfeasible indicates that the selected length budget cannot be
	// satisfied (min >= max or max < 1).
	ErrBudgetInfeasible = errors.New("infeasible length budget")

	// ErrEmptyAbstract indicates that a document reduced to an empty abstract.
	// This happens only for text without any sentence content.
	ErrEmptyAbstract = errors.New("document reduced to an empty abstract")
)
