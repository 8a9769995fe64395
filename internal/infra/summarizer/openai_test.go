package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-abstracts/internal/budget"
	"scholar-abstracts/internal/resilience/retry"
)

const openAIOK = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "A concise summary."}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 120, "completion_tokens": 4, "total_tokens": 124}
}`

const openAIServerError = `{"error": {"message": "server exploded", "type": "server_error"}}`

func TestOpenAI_Summarize(t *testing.T) {
	var req openai.ChatCompletionRequest
	srv, hits := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		writeJSON(w, http.StatusOK, openAIOK)
	})

	spy := &spyMetrics{}
	o := NewOpenAI("test-key", Options{BaseURL: srv.URL + "/v1", Metrics: spy})

	got, err := o.Summarize(context.Background(), "Long article text.", budget.LengthBudget{MaxOutput: 120, MinOutput: 60})
	require.NoError(t, err)

	assert.Equal(t, "A concise summary.", got)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, DefaultOpenAIModel, req.Model)
	assert.Equal(t, 120, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "in 60 to 120 tokens")
	assert.Contains(t, req.Messages[0].Content, "Long article text.")

	assert.Equal(t, []int{4}, spy.lengths)
	assert.Equal(t, []bool{true}, spy.compliance)
}

func TestOpenAI_Summarize_Errors(t *testing.T) {
	tests := []struct {
		name        string
		maxAttempts int
		status      int
		wantHits    int32
	}{
		{name: "single attempt", maxAttempts: 1, status: http.StatusInternalServerError, wantHits: 1},
		{name: "rate limited is retried", maxAttempts: 2, status: http.StatusTooManyRequests, wantHits: 2},
		{name: "unauthorized is not retried", maxAttempts: 3, status: http.StatusUnauthorized, wantHits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, hits := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, openAIServerError)
			})
			o := NewOpenAI("test-key", Options{BaseURL: srv.URL + "/v1", MaxAttempts: tt.maxAttempts})
			o.guard.retry.InitialDelay = time.Millisecond

			_, err := o.Summarize(context.Background(), "text", budget.LengthBudget{MaxOutput: 10, MinOutput: 5})
			require.Error(t, err)

			assert.Equal(t, tt.status, retry.StatusCode(err), "err = %v", err)
			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestOpenAI_Summarize_NoChoices(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`)
	})
	o := NewOpenAI("test-key", Options{BaseURL: srv.URL + "/v1"})

	_, err := o.Summarize(context.Background(), "text", budget.LengthBudget{MaxOutput: 10, MinOutput: 5})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
