package fetcher

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"scholar-abstracts/internal/utils/text"
)

// MaxBodyTextRunes bounds the text taken from a page that has no recognised
// article container.
const MaxBodyTextRunes = 10000

// articleSelectors are tried in order before falling back to Readability.
var articleSelectors = []string{"div.full-text", "article"}

// boilerplateSelector matches elements stripped before taking the body text.
const boilerplateSelector = "script, style, nav, footer, aside, form, header"

// Extractor turns an article page into plain text.
//
// Extraction order:
//  1. the first div.full-text, else the first <article>
//  2. the Readability algorithm (go-shiori/go-readability)
//  3. the body text without boilerplate, truncated to MaxBodyTextRunes
//
// Thread safety: Extractor is safe for concurrent use.
type Extractor struct {
	readable func(io.Reader, *url.URL) (readability.Article, error)
}

// NewExtractor creates an Extractor backed by go-readability.
func NewExtractor() *Extractor {
	return &Extractor{readable: readability.FromReader}
}

// Extract returns the readable text of page. pageURL may be nil.
// Words are separated by single spaces.
func (e *Extractor) Extract(page string, pageURL *url.URL) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	for _, sel := range articleSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			if t := visibleText(found.Nodes); t != "" {
				return t, nil
			}
		}
	}

	if pageURL == nil {
		pageURL = &url.URL{Scheme: "https", Host: "localhost"}
	}
	article, err := e.readable(strings.NewReader(page), pageURL)
	if err != nil {
		slog.Debug("readability extraction failed, using body text",
			slog.String("url", pageURL.String()),
			slog.String("error", err.Error()))
	} else if t := normalizeSpace(article.TextContent); t != "" {
		return t, nil
	}

	doc.Find(boilerplateSelector).Remove()
	body := visibleText(doc.Find("body").Nodes)
	if body == "" {
		return "", ErrNoReadableContent
	}
	return text.Truncate(body, MaxBodyTextRunes), nil
}

// visibleText concatenates the text nodes under nodes, skipping scripts and
// styles, with one space between adjacent nodes.
func visibleText(nodes []*html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.ElementNode:
			if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return normalizeSpace(b.String())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
