package summarizer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"scholar-abstracts/internal/budget"
	"scholar-abstracts/internal/observability/tracing"
	"scholar-abstracts/internal/utils/text"
)

// DefaultOpenAIModel is used when Options.Model is empty.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI summarizes text with the Chat Completions API. BaseURL lets it talk
// to any OpenAI-compatible endpoint.
type OpenAI struct {
	client          *openai.Client
	guard           *guard
	model           string
	metricsRecorder SummaryMetricsRecorder
}

// NewOpenAI creates an OpenAI summarizer.
func NewOpenAI(apiKey string, opts Options) *OpenAI {
	clientCfg := openai.DefaultConfig(apiKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	o := &OpenAI{
		client:          openai.NewClientWithConfig(clientCfg),
		guard:           newGuard("openai-api", opts),
		model:           model,
		metricsRecorder: opts.Metrics,
	}
	if o.metricsRecorder == nil {
		o.metricsRecorder = NoopSummaryMetrics{}
	}

	slog.Info("Initialized OpenAI summarizer",
		slog.String("model", model),
		slog.Int("max_attempts", o.guard.retry.MaxAttempts),
		slog.Duration("timeout", o.guard.timeout))
	return o
}

// Summarize asks the model for a summary of inputText within b.
func (o *OpenAI) Summarize(ctx context.Context, inputText string, b budget.LengthBudget) (string, error) {
	return o.guard.run(ctx, func(ctx context.Context) (string, error) {
		return o.doSummarize(ctx, inputText, b)
	})
}

// doSummarize performs the actual API call without retry or circuit breaker.
func (o *OpenAI) doSummarize(ctx context.Context, inputText string, b budget.LengthBudget) (string, error) {
	requestID := uuid.New().String()

	ctx, span := tracing.GetTracer().Start(ctx, "summarizer.openai")
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
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: b.MaxOutput,
		// zero is omitted from the request body
		Temperature: math.SmallestNonzeroFloat32,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(inputText, b),
			},
		},
	})
	duration := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "openai api error")
		slog.WarnContext(ctx, "Summarization failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))

		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyResponse)
	}

	outputTokens := resp.Usage.CompletionTokens
	within := recordCall(o.metricsRecorder, outputTokens, b.MaxOutput, duration)
	span.SetAttributes(attribute.Int("output_tokens", outputTokens))

	slog.DebugContext(ctx, "Summarization completed",
		slog.String("request_id", requestID),
		slog.Int("output_tokens", outputTokens),
		slog.Bool("within_budget", within),
		slog.String("finish_reason", string(resp.Choices[0].FinishReason)),
		slog.Duration("duration", duration))

	return resp.Choices[0].Message.Content, nil
}
