// Package summarizer provides the summarization backends used by the abstract
// pipeline: adapters for the Claude (Anthropic) and OpenAI APIs guarded by a
// circuit breaker, retries and an optional rate limit, plus an offline
// extractive summarizer.
package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"scholar-abstracts/internal/budget"
	"scholar-abstracts/internal/observability/tracing"
	"scholar-abstracts/internal/utils/text"
)

// DefaultClaudeModel is used when Options.Model is empty.
const DefaultClaudeModel = anthropic.ModelClaudeSonnet4_5_20250929

// Claude summarizes text with Anthropic's Messages API.
type Claude struct {
	client          anthropic.Client
	guard           *guard
	model           anthropic.Model
	metricsRecorder SummaryMetricsRecorder
}

// NewClaude creates a Claude summarizer. SDK-level retries are disabled; the
// guard's retry policy is the only one applied.
func NewClaude(apiKey string, opts Options) *Claude {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	model := anthropic.Model(opts.Model)
	if model == "" {
		model = DefaultClaudeModel
	}

	c := &Claude{
		client:          anthropic.NewClient(clientOpts...),
		guard:           newGuard("claude-api", opts),
		model:           model,
		metricsRecorder: opts.Metrics,
	}
	if c.metricsRecorder == nil {
		c.metricsRecorder = NoopSummaryMetrics{}
	}

	slog.Info("Initialized Claude summarizer",
		slog.String("model", string(model)),
		slog.Int("max_attempts", c.guard.retry.MaxAttempts),
		slog.Duration("timeout", c.guard.timeout))
	return c
}

// Summarize asks the model for a summary of inputText within b.
func (c *Claude) Summarize(ctx context.Context, inputText string, b budget.LengthBudget) (string, error) {
	return c.guard.run(ctx, func(ctx context.Context) (string, error) {
		return c.doSummarize(ctx, inputText, b)
	})
}

// doSummarize performs the actual API call without retry or circuit breaker.
func (c *Claude) doSummarize(ctx context.Context, inputText string, b budget.LengthBudget) (string, error) {
	requestID := uuid.New().String()

	ctx, span := tracing.GetTracer().Start(ctx, "summarizer.claude")
	defer span.End()
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.Int("budget.max", b.MaxOutput),
		attribute.Int("budget.min", b.MinOutput))

	slog.DebugContext(ctx, "Starting summarization",
		slog.String("request_id", requestID),
		slog.Int("input_chars", text.CountRunes(inputText)),
		slog.Int("max_output", b.MaxOutput),
		slog.Int("min_output", b.MinOutput))

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   int64(b.MaxOutput),
		Temperature: anthropic.Float(0),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(buildPrompt(inputText, b)),
			),
		},
	})
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "claude api error")
		slog.WarnContext(ctx, "Summarization failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	outputTokens := int(message.Usage.OutputTokens)
	within := recordCall(c.metricsRecorder, outputTokens, b.MaxOutput, duration)
	span.SetAttributes(attribute.Int("output_tokens", outputTokens))

	slog.DebugContext(ctx, "Summarization completed",
		slog.String("request_id", requestID),
		slog.Int("output_tokens", outputTokens),
		slog.Bool("within_budget", within),
		slog.String("stop_reason", string(message.StopReason)),
		slog.Duration("duration", duration))

	return textBlock.Text, nil
}
