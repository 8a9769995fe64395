package abstract

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scholar-abstracts/internal/budget"
	"scholar-abstracts/internal/config"
	"scholar-abstracts/internal/fallback"
	"scholar-abstracts/internal/tokenizer"
)

type summarizeCall struct {
	Text   string
	Budget budget.LengthBudget
}

// stubSummarizer is a deterministic Summarizer that records every call.
// A nil fn answers "summary." to everything.
type stubSummarizer struct {
	mu    sync.Mutex
	calls []summarizeCall
	fn    func(text string, b budget.LengthBudget) (string, error)
}

func (s *stubSummarizer) Summarize(_ context.Context, text string, b budget.LengthBudget) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, summarizeCall{Text: text, Budget: b})
	s.mu.Unlock()

	if s.fn == nil {
		return "summary.", nil
	}
	return s.fn(text, b)
}

func (s *stubSummarizer) Calls() []summarizeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]summarizeCall(nil), s.calls...)
}

// words returns n distinct space-separated words: prefix0 prefix1 ...
func words(prefix string, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return strings.Join(out, " ")
}

// testConfig uses 60-token windows so that every full window clears the
// 50-token informative threshold.
func testConfig() config.PipelineConfig {
	cfg := config.DefaultPipelineConfig()
	cfg.MaxTokensPerChunk = 60
	cfg.Encoding = tokenizer.EncodingWords
	return cfg
}

func newTestReducer(t *testing.T, s Summarizer, cfg config.PipelineConfig, opts ...ReducerOption) *Reducer {
	t.Helper()
	opts = append([]ReducerOption{WithRunIDGenerator(func() string { return "run-1" })}, opts...)
	r, err := NewReducer(tokenizer.NewWordCodec(), NewEngine(s, fallback.New()), cfg, opts...)
	require.NoError(t, err)
	return r
}

type fallbackEvent struct {
	Stage  string
	Reason string
}

// spyRecorder records pipeline metrics for assertions.
type spyRecorder struct {
	mu        sync.Mutex
	documents []string
	chunks    []string
	fallbacks []fallbackEvent
	dropped   int
}

func (r *spyRecorder) RecordDocument(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents = append(r.documents, outcome)
}

func (r *spyRecorder) RecordChunk(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks = append(r.chunks, source)
}

func (r *spyRecorder) RecordFallback(stage, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, fallbackEvent{Stage: stage, Reason: reason})
}

func (r *spyRecorder) RecordDroppedWindows(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped += n
}

func (r *spyRecorder) RecordStageDuration(string, time.Duration) {}
