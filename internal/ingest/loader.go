package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"scholar-abstracts/internal/domain/entity"
	"scholar-abstracts/internal/observability/logging"
)

// HTMLExtractor turns a stored article page into plain text.
type HTMLExtractor interface {
	Extract(page string, pageURL *url.URL) (string, error)
}

// ContentFetcher downloads an article page and returns its plain text.
type ContentFetcher interface {
	FetchContent(ctx context.Context, rawURL string) (string, error)
}

// Options controls how records become documents.
type Options struct {
	// UseCleaned prefers "Cleaned Text Content" over "Full Text Content".
	UseCleaned bool

	// Dedupe drops untitled records and repeated titles (see Dedupe).
	Dedupe bool

	// Clean, when non-nil, is applied to every document's text.
	Clean func(string) string

	// Fetcher, when non-nil, downloads the page of records that have a link
	// but no text.
	Fetcher ContentFetcher

	// FetchParallelism bounds concurrent downloads. Values below 1 mean 1.
	FetchParallelism int
}

// Loader reads scholar results.
type Loader struct {
	extractor HTMLExtractor
	opts      Options
}

// NewLoader creates a Loader. extractor may be nil, in which case the html
// field is ignored.
func NewLoader(extractor HTMLExtractor, opts Options) *Loader {
	return &Loader{extractor: extractor, opts: opts}
}

// LoadFile reads the results stored at path.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]entity.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return l.Load(ctx, f)
}

// Load decodes the records in r and returns one document per record, in input
// order (after deduplication when enabled). A record whose text cannot be
// obtained yields a document with empty text rather than an error.
func (l *Loader) Load(ctx context.Context, r io.Reader) ([]entity.Document, error) {
	logger := logging.FromContext(ctx)

	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	docs := make([]entity.Document, len(records))
	links := make([]string, len(records))
	for i, rec := range records {
		docs[i] = entity.Document{Title: strings.TrimSpace(rec.Title), FullText: rec.text(l.opts.UseCleaned)}
		links[i] = rec.Link
		if !docs[i].HasContent() && rec.HTML != "" && l.extractor != nil {
			docs[i].FullText = l.extractHTML(logger, rec)
		}
	}

	if l.opts.Fetcher != nil {
		if err := l.fetchMissing(ctx, docs, links); err != nil {
			return nil, err
		}
	}

	if l.opts.Dedupe {
		before := len(docs)
		docs = Dedupe(docs)
		logger.Info("duplicate records removed",
			slog.Int("records", before),
			slog.Int("removed", before-len(docs)))
	}

	for i := range docs {
		if docs[i].Title == "" {
			docs[i].Title = entity.UntitledDocument
		}
		if l.opts.Clean != nil && docs[i].HasContent() {
			docs[i].FullText = l.opts.Clean(docs[i].FullText)
		}
	}

	logger.Info("records loaded",
		slog.Int("documents", len(docs)),
		slog.Bool("use_cleaned", l.opts.UseCleaned),
		slog.Bool("cleaned", l.opts.Clean != nil))
	return docs, nil
}

func (l *Loader) extractHTML(logger *slog.Logger, rec Record) string {
	var pageURL *url.URL
	if rec.Link != "" {
		if u, err := url.Parse(rec.Link); err == nil {
			pageURL = u
		}
	}

	text, err := l.extractor.Extract(rec.HTML, pageURL)
	if err != nil {
		logger.Warn("failed to extract text from stored html",
			slog.String("title", rec.Title),
			slog.Any("error", err))
		return ""
	}
	return text
}

// fetchMissing downloads the pages of documents that have a link but no text.
// Download failures leave the text empty. Only cancellation of ctx is
// returned.
func (l *Loader) fetchMissing(ctx context.Context, docs []entity.Document, links []string) error {
	logger := logging.FromContext(ctx)
	start := time.Now()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(l.opts.FetchParallelism, 1))

	fetched := 0
	for i := range docs {
		if docs[i].HasContent() || links[i] == "" {
			continue
		}
		fetched++
		eg.Go(func() error {
			text, err := l.opts.Fetcher.FetchContent(egCtx, links[i])
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("failed to fetch article page",
					slog.String("title", docs[i].Title),
					slog.String("url", links[i]),
					slog.Any("error", err))
				return nil
			}
			docs[i].FullText = text
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("fetch article pages: %w", err)
	}
	if fetched > 0 {
		logger.Info("article pages fetched",
			slog.Int("pages", fetched),
			slog.Duration("duration", time.Since(start)))
	}
	return nil
}
