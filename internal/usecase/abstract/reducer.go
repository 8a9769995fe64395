package abstract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"scholar-abstracts/internal/chunker"
	"scholar-abstracts/internal/config"
	"scholar-abstracts/internal/observability/logging"
	"scholar-abstracts/internal/observability/metrics"
	"scholar-abstracts/internal/observability/tracing"
	"scholar-abstracts/internal/tokenizer"
)

// State is a step of the reduction of one document.
type State int

const (
	StateChunking State = iota
	StatePerChunkSummarizing
	StateCombining
	StateFinalSummarizing
	StateDone
)

func (s State) String() string {
	switch s {
	case StateChunking:
		return "CHUNKING"
	case StatePerChunkSummarizing:
		return "PER_CHUNK_SUMMARIZING"
	case StateCombining:
		return "COMBINING"
	case StateFinalSummarizing:
		return "FINAL_SUMMARIZING"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ChunkSummary is the summary of exactly one chunk. It is never mutated after
// the reducer appends it.
type ChunkSummary struct {
	Index  int
	Text   string
	Source string // metrics.SourceModel or metrics.SourceFallback
	Reason FallbackReason
}

// Result is the reduction of one document.
type Result struct {
	RunID     string
	Abstract  string
	Summaries []ChunkSummary

	TotalTokens    int
	TotalWindows   int
	DroppedWindows int

	// FinalReason is the fallback reason of the final stage. ReasonNone when
	// the final stage was skipped or used the model output.
	FinalReason FallbackReason
}

// Reducer runs the per-document state machine:
//
//	CHUNKING -> PER_CHUNK_SUMMARIZING -> DONE                                  (one chunk)
//	CHUNKING -> PER_CHUNK_SUMMARIZING -> COMBINING -> FINAL_SUMMARIZING -> DONE (several)
//
// No state is ever repeated and no model call is retried.
type Reducer struct {
	codec    tokenizer.Codec
	chunker  *chunker.Chunker
	engine   *Engine
	cfg      config.PipelineConfig
	recorder metrics.Recorder
	tracer   trace.Tracer
	newRunID func() string
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithRecorder sets the metrics recorder. Defaults to metrics.NoopRecorder.
func WithRecorder(r metrics.Recorder) ReducerOption {
	return func(red *Reducer) { red.recorder = r }
}

// WithTracer sets the tracer. Defaults to tracing.GetTracer().
func WithTracer(t trace.Tracer) ReducerOption {
	return func(red *Reducer) { red.tracer = t }
}

// WithRunIDGenerator overrides the run ID source. Defaults to uuid.NewString.
func WithRunIDGenerator(gen func() string) ReducerOption {
	return func(red *Reducer) { red.newRunID = gen }
}

// NewReducer creates a Reducer for cfg. cfg is validated first.
func NewReducer(codec tokenizer.Codec, engine *Engine, cfg config.PipelineConfig, opts ...ReducerOption) (*Reducer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ch, err := chunker.New(codec, cfg.MaxTokensPerChunk, cfg.MaxChunks)
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}

	r := &Reducer{
		codec:    codec,
		chunker:  ch,
		engine:   engine,
		cfg:      cfg,
		recorder: metrics.NoopRecorder{},
		tracer:   tracing.GetTracer(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Reduce produces the abstract of text.
//
// Model failures are recovered per unit by the engine. An error is returned
// only when ctx is already done or the document yields no abstract at all.
func (r *Reducer) Reduce(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{RunID: r.newRunID()}
	logger := logging.WithRunID(logging.FromContext(ctx), res.RunID)

	ctx, span := r.tracer.Start(ctx, "abstract.reduce",
		trace.WithAttributes(attribute.String("run_id", res.RunID)))
	defer span.End()

	state := StateChunking
	transition := func(next State) {
		logger.Debug("reducer state transition",
			slog.String("from", state.String()),
			slog.String("to", next.String()))
		state = next
	}

	split := r.chunker.Split(text)
	res.TotalTokens = split.TotalTokens
	res.TotalWindows = split.TotalWindows
	res.DroppedWindows = split.Dropped()
	r.recorder.RecordDroppedWindows(res.DroppedWindows)
	if res.DroppedWindows > 0 {
		logger.Debug("trailing windows dropped by chunk cap",
			slog.Int("total_windows", res.TotalWindows),
			slog.Int("max_chunks", r.chunker.MaxChunks()))
	}
	span.SetAttributes(
		attribute.Int("tokens", res.TotalTokens),
		attribute.Int("windows", res.TotalWindows),
		attribute.Int("chunks", len(split.Chunks)),
	)

	transition(StatePerChunkSummarizing)
	res.Summaries = make([]ChunkSummary, 0, len(split.Chunks))
	for _, c := range split.Chunks {
		res.Summaries = append(res.Summaries, r.summarizeChunk(ctx, logger, c))
	}

	if len(res.Summaries) == 1 {
		res.Abstract = res.Summaries[0].Text
	} else {
		transition(StateCombining)
		parts := make([]string, len(res.Summaries))
		for i, s := range res.Summaries {
			parts[i] = s.Text
		}
		combined := strings.Join(parts, " ")

		transition(StateFinalSummarizing)
		out := r.summarizeFinal(ctx, logger, combined)
		res.Abstract = out.Text
		res.FinalReason = out.Reason
	}
	transition(StateDone)

	if strings.TrimSpace(res.Abstract) == "" {
		span.SetStatus(codes.Error, ErrEmptyAbstract.Error())
		return res, ErrEmptyAbstract
	}
	return res, nil
}

func (r *Reducer) summarizeChunk(ctx context.Context, logger *slog.Logger, c chunker.Chunk) ChunkSummary {
	ctx, span := r.tracer.Start(ctx, "abstract.chunk", trace.WithAttributes(
		attribute.Int("chunk.index", c.Index),
		attribute.Int("chunk.tokens", c.TokenCount),
	))
	defer span.End()

	start := time.Now()
	unit := Unit{
		Text:              c.Text,
		TokenCount:        c.TokenCount,
		Profile:           r.cfg.ChunkBudget,
		FallbackSentences: r.cfg.ChunkFallbackSentences,
	}

	var out Outcome
	if c.TokenCount < r.cfg.MinInformativeTokens {
		out = r.engine.Extract(unit, ReasonBelowThreshold)
	} else {
		out = r.engine.Summarize(ctx, unit)
	}
	r.recorder.RecordStageDuration(metrics.StageChunk, time.Since(start))

	source := metrics.SourceModel
	if out.Fallback() {
		source = metrics.SourceFallback
		r.recorder.RecordFallback(metrics.StageChunk, string(out.Reason))
		span.SetAttributes(attribute.String("fallback.reason", string(out.Reason)))
		logger.Debug("chunk summarized by fallback",
			slog.Int("chunk_index", c.Index),
			slog.Int("tokens", c.TokenCount),
			slog.String("reason", string(out.Reason)),
			slog.Any("error", out.Err))
	}
	r.recorder.RecordChunk(source)
	span.SetAttributes(attribute.String("summary.source", source))

	return ChunkSummary{Index: c.Index, Text: out.Text, Source: source, Reason: out.Reason}
}

func (r *Reducer) summarizeFinal(ctx context.Context, logger *slog.Logger, combined string) Outcome {
	tokens := r.codec.Count(combined)
	ctx, span := r.tracer.Start(ctx, "abstract.final", trace.WithAttributes(
		attribute.Int("combined.tokens", tokens),
	))
	defer span.End()

	start := time.Now()
	out := r.engine.Summarize(ctx, Unit{
		Text:              combined,
		TokenCount:        tokens,
		Profile:           r.cfg.FinalBudget,
		FallbackSentences: r.cfg.FinalFallbackSentences,
	})
	r.recorder.RecordStageDuration(metrics.StageFinal, time.Since(start))

	if out.Fallback() {
		r.recorder.RecordFallback(metrics.StageFinal, string(out.Reason))
		span.SetAttributes(attribute.String("fallback.reason", string(out.Reason)))
		logger.Warn("final reduction used fallback",
			slog.Int("tokens", tokens),
			slog.String("reason", string(out.Reason)),
			slog.Any("error", out.Err))
	}
	return out
}
