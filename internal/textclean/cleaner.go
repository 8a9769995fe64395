// Package textclean strips scraping debris from scholarly full text before it
// is summarized: links, DOIs, publisher hosts, in-text citations, figure
// references and metadata sentences.
package textclean

import (
	"regexp"
	"strings"

	"scholar-abstracts/internal/fallback"
	"scholar-abstracts/internal/utils/text"
)

// DefaultMinSentenceRunes is the shortest sentence kept by default.
const DefaultMinSentenceRunes = 20

// DefaultMetadataKeywords mark sentences that belong to page chrome rather
// than to the paper. Matching is case-insensitive.
var DefaultMetadataKeywords = []string{
	"Journal", "Volume", "Issue", "Citations", "Open Access",
	"Corresponding Author", "Search for more papers", "Department for Health",
	"orcid", "bath.ac.uk", "©", "Special Issue",
}

var (
	linkPattern = regexp.MustCompile(`(?i)https?://\S+|www\.\S+|doi:\s*\S+|\b(?:ncbi|pubmed|sciencedirect|springer|nature|elsevier|arxiv|jstor)\.\S+`)

	// [1], [1, 2], (3), (3,4), Fig 2, Fig. 2, Figure 3
	citationPattern = regexp.MustCompile(`(?i)\[\d+(?:,\s*\d+)*\]|\(\d+(?:,\s*\d+)*\)|Fig\.? \d+|Figure \d+`)

	whitespacePattern = regexp.MustCompile(`\s+`)

	spaceBeforePunct = regexp.MustCompile(`\s+([.,;:!?])`)
)

// Cleaner removes non-content fragments from text.
type Cleaner struct {
	splitter         fallback.SentenceSplitter
	minSentenceRunes int
	keywords         []string
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithMinSentenceRunes sets the shortest sentence kept.
func WithMinSentenceRunes(n int) Option {
	return func(c *Cleaner) { c.minSentenceRunes = n }
}

// WithMetadataKeywords replaces the metadata keyword list.
func WithMetadataKeywords(keywords ...string) Option {
	return func(c *Cleaner) { c.keywords = keywords }
}

// New creates a Cleaner with the default rules.
func New(opts ...Option) *Cleaner {
	c := &Cleaner{
		splitter:         fallback.UAX29Splitter{},
		minSentenceRunes: DefaultMinSentenceRunes,
		keywords:         DefaultMetadataKeywords,
	}
	for _, opt := range opts {
		opt(c)
	}
	lowered := make([]string, len(c.keywords))
	for i, k := range c.keywords {
		lowered[i] = strings.ToLower(k)
	}
	c.keywords = lowered
	return c
}

// Clean returns text without links, citations, figure references, short
// sentences and metadata sentences, with whitespace collapsed to single
// spaces. Sentence order is preserved.
func (c *Cleaner) Clean(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}

	input = linkPattern.ReplaceAllString(input, "")
	// line breaks in scraped text are layout, not sentence boundaries
	input = whitespacePattern.ReplaceAllString(input, " ")

	var kept []string
	for _, sentence := range c.splitter.Split(input) {
		sentence = citationPattern.ReplaceAllString(sentence, "")
		if text.CountRunes(sentence) < c.minSentenceRunes || c.isMetadata(sentence) {
			continue
		}
		kept = append(kept, sentence)
	}

	out := whitespacePattern.ReplaceAllString(strings.Join(kept, " "), " ")
	return strings.TrimSpace(spaceBeforePunct.ReplaceAllString(out, "$1"))
}

func (c *Cleaner) isMetadata(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
