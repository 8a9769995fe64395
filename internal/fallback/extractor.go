// Package fallback produces naive lead-sentence summaries used whenever the
// model path is skipped or fails.
package fallback

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

// SentenceSplitter splits text into an ordered sequence of sentences.
type SentenceSplitter interface {
	Split(text string) []string
}

// UAX29Splitter detects sentence boundaries with Unicode Standard Annex #29.
type UAX29Splitter struct{}

// Split returns the trimmed, non-empty sentences of text in order.
func (UAX29Splitter) Split(text string) []string {
	var out []string
	seg := sentences.FromString(text)
	for seg.Next() {
		s := strings.TrimSpace(seg.Value())
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Extractor returns the first sentences of a text.
type Extractor struct {
	splitter SentenceSplitter
}

// New creates an Extractor backed by UAX29Splitter.
func New() *Extractor {
	return &Extractor{splitter: UAX29Splitter{}}
}

// NewWithSplitter creates an Extractor with a custom splitter.
func NewWithSplitter(splitter SentenceSplitter) *Extractor {
	return &Extractor{splitter: splitter}
}

// Extract returns the first n sentences of text joined by a single space.
// Fewer sentences than n yields all of them. It never fails and never pads.
func (e *Extractor) Extract(text string, n int) string {
	if n <= 0 {
		return ""
	}
	sents := e.splitter.Split(text)
	if len(sents) > n {
		sents = sents[:n]
	}
	return strings.Join(sents, " ")
}
