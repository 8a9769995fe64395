package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks input that cannot be read as documents at all.
	// The batch is rejected before any document is processed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDocument marks a single document that cannot be identified.
	// Such documents are skipped, never rejected with the batch.
	ErrInvalidDocument = errors.New("invalid document")
)

// ValidationError names the document field that failed validation.
// It matches ErrInvalidDocument with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidDocument, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}
