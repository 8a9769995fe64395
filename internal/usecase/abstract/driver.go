package abstract

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"scholar-abstracts/internal/domain/entity"
	"scholar-abstracts/internal/observability/logging"
	"scholar-abstracts/internal/observability/metrics"
	"scholar-abstracts/internal/utils/text"
)

// DocumentReducer reduces the full text of one document to its abstract.
type DocumentReducer interface {
	Reduce(ctx context.Context, text string) (Result, error)
}

// Driver runs the pipeline over a batch of documents. Run is total: it returns
// one abstract per document, in input order, whatever happens to any single
// document.
type Driver struct {
	reducer     DocumentReducer
	concurrency int
	recorder    metrics.Recorder
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDriverRecorder sets the metrics recorder. Defaults to metrics.NoopRecorder.
func WithDriverRecorder(r metrics.Recorder) DriverOption {
	return func(d *Driver) { d.recorder = r }
}

// NewDriver creates a Driver processing up to concurrency documents at once.
// Values below 1 are treated as 1 (strictly sequential).
func NewDriver(reducer DocumentReducer, concurrency int, opts ...DriverOption) *Driver {
	d := &Driver{
		reducer:     reducer,
		concurrency: max(concurrency, 1),
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run produces the abstracts of docs.
//
// Documents without content get entity.NoContentMessage. Documents whose
// reduction fails or panics get entity.ErrorMessage. Once ctx is done no
// further document is started, and every unstarted document with content gets
// entity.ErrorMessage.
func (d *Driver) Run(ctx context.Context, docs []entity.Document) []entity.Abstract {
	logger := logging.FromContext(ctx)
	start := time.Now()
	out := make([]entity.Abstract, len(docs))

	var eg errgroup.Group
	eg.SetLimit(d.concurrency)

	for i, doc := range docs {
		if !doc.HasContent() {
			out[i] = entity.Abstract{Title: doc.Title, Abstract: entity.NoContentMessage}
			d.recorder.RecordDocument(metrics.OutcomeNoContent)
			logger.Info("document has no content",
				slog.Int("doc_index", i),
				slog.String("title", doc.Title))
			continue
		}

		if ctx.Err() != nil {
			out[i] = entity.Abstract{Title: doc.Title, Abstract: entity.ErrorMessage}
			d.recorder.RecordDocument(metrics.OutcomeError)
			continue
		}

		eg.Go(func() error {
			out[i] = entity.Abstract{Title: doc.Title, Abstract: d.process(ctx, i, doc)}
			return nil
		})
	}
	_ = eg.Wait()

	logger.Info("batch completed",
		slog.Int("documents", len(docs)),
		slog.Duration("duration", time.Since(start)))
	return out
}

// process reduces one document. It never panics and never returns "".
func (d *Driver) process(ctx context.Context, index int, doc entity.Document) (abstract string) {
	logger := logging.WithDocument(logging.FromContext(ctx), index, doc.Title)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic while generating abstract",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			abstract = entity.ErrorMessage
			d.recorder.RecordDocument(metrics.OutcomeError)
		}
	}()

	res, err := d.reducer.Reduce(logging.WithLogger(ctx, logger), doc.FullText)
	d.recorder.RecordStageDuration(metrics.StageDocument, time.Since(start))
	if err != nil {
		logger.Error("failed to generate abstract",
			slog.Any("error", fmt.Errorf("reduce document %d: %w", index, err)))
		d.recorder.RecordDocument(metrics.OutcomeError)
		return entity.ErrorMessage
	}

	d.recorder.RecordDocument(metrics.OutcomeSummarized)
	logger.Info("abstract generated",
		slog.String("run_id", res.RunID),
		slog.Int("tokens", res.TotalTokens),
		slog.Int("chunks", len(res.Summaries)),
		slog.Int("dropped_windows", res.DroppedWindows),
		slog.Int("abstract_chars", text.CountRunes(res.Abstract)),
		slog.Duration("duration", time.Since(start)))
	return res.Abstract
}
