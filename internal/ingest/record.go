// Package ingest reads scholar search results into pipeline documents.
//
// The input is a JSON array of records as produced by the scholar scraper:
//
//	[{"title": "...", "link": "...", "full_abstract": {"Full Text Content": "..."}}]
//
// A record's text comes from, in order: "Cleaned Text Content" (only when
// Options.UseCleaned is set), "Full Text Content", the raw "html" field, and
// finally the page at "link" when a fetcher is configured.
package ingest

import (
	"fmt"
	"strings"

	"scholar-abstracts/internal/domain/entity"
)

// PlaceholderFullText is written by the scraper when a page had no text. It is
// read as empty.
const PlaceholderFullText = "No Full Text Available"

// ErrMalformedInput indicates that the input is not a JSON array of records.
// It matches entity.ErrInvalidInput.
var ErrMalformedInput = fmt.Errorf("%w: malformed scholar results", entity.ErrInvalidInput)

// Record is one scholar search result.
type Record struct {
	Title        string        `json:"title"`
	Link         string        `json:"link,omitempty"`
	FullAbstract *FullAbstract `json:"full_abstract,omitempty"`
	HTML         string        `json:"html,omitempty"`
}

// FullAbstract holds the text scraped from a result's page.
type FullAbstract struct {
	FullText    string `json:"Full Text Content"`
	CleanedText string `json:"Cleaned Text Content,omitempty"`
}

// text returns the record's stored text, preferring the cleaned variant when
// useCleaned is set and it is non-empty.
func (r Record) text(useCleaned bool) string {
	if r.FullAbstract == nil {
		return ""
	}
	if useCleaned && strings.TrimSpace(r.FullAbstract.CleanedText) != "" {
		return r.FullAbstract.CleanedText
	}
	if strings.TrimSpace(r.FullAbstract.FullText) == PlaceholderFullText {
		return ""
	}
	return r.FullAbstract.FullText
}
