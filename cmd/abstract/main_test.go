package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-abstracts/internal/domain/entity"
)

const results = `[
	{"title": "Warm Media", "full_abstract": {"Full Text Content": "Cells divide quickly in warm media."}},
	{"title": "Missing Text", "full_abstract": {"Full Text Content": "No Full Text Available"}},
	{"title": "Blank", "full_abstract": {"Full Text Content": "   "}}
]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func offlineEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUMMARIZER_TYPE", "extractive")
	t.Setenv("TOKENIZER_ENCODING", "words")
	t.Setenv("PIPELINE_PROFILE", "default")
	t.Setenv("PIPELINE_CONFIG_FILE", "")
	t.Setenv("METRICS_PORT", "")
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func decodeAbstracts(t *testing.T, data []byte) []entity.Abstract {
	t.Helper()
	var got []entity.Abstract
	require.NoError(t, json.Unmarshal(data, &got))
	return got
}

func TestRun_Stdout(t *testing.T) {
	offlineEnv(t)
	var out bytes.Buffer

	err := run(context.Background(), discardLogger(), prometheus.NewRegistry(),
		runOptions{input: writeInput(t, results)}, &out)
	require.NoError(t, err)

	assert.Equal(t, []entity.Abstract{
		{Title: "Warm Media", Abstract: "Cells divide quickly in warm media."},
		{Title: "Missing Text", Abstract: entity.NoContentMessage},
		{Title: "Blank", Abstract: entity.NoContentMessage},
	}, decodeAbstracts(t, out.Bytes()))
}

func TestRun_OutputFile(t *testing.T) {
	offlineEnv(t)
	output := filepath.Join(t.TempDir(), "abstracts.json")
	var out bytes.Buffer

	err := run(context.Background(), discardLogger(), prometheus.NewRegistry(),
		runOptions{input: writeInput(t, results), output: output, dedupe: true}, &out)
	require.NoError(t, err)
	assert.Empty(t, out.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, decodeAbstracts(t, data), 3)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		input func(t *testing.T) string
	}{
		{
			name:  "missing input file",
			input: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.json") },
		},
		{
			name:  "malformed input",
			input: func(t *testing.T) string { return writeInput(t, "not json") },
		},
		{
			name:  "missing api key",
			env:   map[string]string{"SUMMARIZER_TYPE": "claude", "ANTHROPIC_API_KEY": ""},
			input: func(t *testing.T) string { return writeInput(t, results) },
		},
		{
			name:  "unknown profile",
			env:   map[string]string{"PIPELINE_PROFILE": "huge"},
			input: func(t *testing.T) string { return writeInput(t, results) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offlineEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			var out bytes.Buffer

			err := run(context.Background(), discardLogger(), prometheus.NewRegistry(),
				runOptions{input: tt.input(t)}, &out)
			assert.Error(t, err)
			assert.Empty(t, out.String())
		})
	}
}

func TestExitCode(t *testing.T) {
	offlineEnv(t)

	err := run(context.Background(), discardLogger(), prometheus.NewRegistry(),
		runOptions{input: writeInput(t, `{"title": "not an array"}`)}, io.Discard)
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))

	err = run(context.Background(), discardLogger(), prometheus.NewRegistry(),
		runOptions{input: filepath.Join(t.TempDir(), "missing.json")}, io.Discard)
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestRootCmd(t *testing.T) {
	offlineEnv(t)
	var out bytes.Buffer

	cmd := newRootCmd(discardLogger())
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--input", writeInput(t, results), "--clean", "--use-cleaned"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	got := decodeAbstracts(t, out.Bytes())
	require.Len(t, got, 3)
	assert.Equal(t, "Warm Media", got[0].Title)
}

func TestRootCmd_RequiresInput(t *testing.T) {
	cmd := newRootCmd(discardLogger())
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(nil)

	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestWriteAbstracts(t *testing.T) {
	tests := []struct {
		name      string
		abstracts []entity.Abstract
		want      string
	}{
		{
			name:      "empty batch",
			abstracts: nil,
			want:      "[]\n",
		},
		{
			name:      "html characters are not escaped",
			abstracts: []entity.Abstract{{Title: "A & B", Abstract: "x < y"}},
			want:      "[\n    {\n        \"title\": \"A & B\",\n        \"abstract\": \"x < y\"\n    }\n]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeAbstracts(&buf, tt.abstracts))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestTokenizerCacheDir(t *testing.T) {
	t.Setenv("TOKENIZER_CACHE_DIR", "/tmp/ranks")
	assert.Equal(t, "/tmp/ranks", tokenizerCacheDir())

	t.Setenv("TOKENIZER_CACHE_DIR", "")
	assert.Equal(t, "tiktoken", filepath.Base(tokenizerCacheDir()))
}
