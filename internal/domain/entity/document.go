// Package entity defines the core domain entities of the abstract pipeline:
// the documents it reads and the abstracts it produces.
package entity

import "strings"

// Fixed abstract texts emitted instead of a summary.
const (
	// NoContentMessage is the abstract of a document with empty or
	// whitespace-only text.
	NoContentMessage = "No content available for summarization."

	// ErrorMessage is the abstract of a document whose processing failed.
	ErrorMessage = "Error generating abstract."

	// UntitledDocument is the title given to records without one.
	UntitledDocument = "No Title"
)

// Document is one input record. Its text may be empty.
type Document struct {
	Title    string
	FullText string
}

// HasContent reports whether the document has any non-whitespace text.
func (d Document) HasContent() bool {
	return strings.TrimSpace(d.FullText) != ""
}

// Validate checks the fields required to identify a document.
func (d Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return nil
}

// Abstract is one output record. Abstract is never empty.
type Abstract struct {
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
}
