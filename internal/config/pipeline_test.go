package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-abstracts/internal/budget"
	pkgconfig "scholar-abstracts/internal/pkg/config"
)

var pipelineEnvVars = []string{
	"PIPELINE_PROFILE",
	"PIPELINE_CONFIG_FILE",
	"PIPELINE_MAX_TOKENS_PER_CHUNK",
	"PIPELINE_MAX_CHUNKS",
	"PIPELINE_CHUNK_CAP",
	"PIPELINE_CHUNK_FLOOR",
	"PIPELINE_CHUNK_ABS_FLOOR",
	"PIPELINE_FINAL_CAP",
	"PIPELINE_FINAL_FLOOR",
	"PIPELINE_FINAL_ABS_FLOOR",
	"PIPELINE_MIN_INFORMATIVE_TOKENS",
	"PIPELINE_CHUNK_FALLBACK_SENTENCES",
	"PIPELINE_FINAL_FALLBACK_SENTENCES",
	"PIPELINE_CONCURRENCY",
	"TOKENIZER_ENCODING",
}

// clearEnv unsets keys for the duration of the test.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPresets_AreValid(t *testing.T) {
	require.NoError(t, DefaultPipelineConfig().Validate())
	require.NoError(t, CompactPipelineConfig().Validate())
}

func TestDefaultPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()

	assert.Equal(t, 1024, cfg.MaxTokensPerChunk)
	assert.Equal(t, 5, cfg.MaxChunks)
	assert.Equal(t, budget.Profile{Cap: 800, Floor: 400, AbsoluteFloor: 30}, cfg.ChunkBudget)
	assert.Equal(t, budget.Profile{Cap: 500, Floor: 200, AbsoluteFloor: 30}, cfg.FinalBudget)
	assert.Equal(t, 50, cfg.MinInformativeTokens)
	assert.Equal(t, 3, cfg.ChunkFallbackSentences)
	assert.Equal(t, 50, cfg.FinalFallbackSentences)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, "cl100k_base", cfg.Encoding)
}

func TestCompactPipelineConfig(t *testing.T) {
	cfg := CompactPipelineConfig()

	assert.Equal(t, 512, cfg.MaxTokensPerChunk)
	assert.Equal(t, 300, cfg.ChunkBudget.Cap)
	assert.Equal(t, 120, cfg.ChunkBudget.Floor)
	assert.Equal(t, 200, cfg.FinalBudget.Cap)
	assert.Equal(t, 80, cfg.FinalBudget.Floor)
	assert.Equal(t, 10, cfg.FinalFallbackSentences)
}

func TestPreset(t *testing.T) {
	cfg, err := Preset("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPipelineConfig(), cfg)

	cfg, err = Preset(PresetCompact)
	require.NoError(t, err)
	assert.Equal(t, CompactPipelineConfig(), cfg)

	_, err = Preset("huge")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestPipelineConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *PipelineConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*PipelineConfig) {}},
		{name: "window of one token", mutate: func(c *PipelineConfig) { c.MaxTokensPerChunk = 1 }, wantErr: true},
		{name: "zero chunks", mutate: func(c *PipelineConfig) { c.MaxChunks = 0 }, wantErr: true},
		{name: "chunk floor above cap", mutate: func(c *PipelineConfig) { c.ChunkBudget.Floor = 900 }, wantErr: true},
		{name: "final cap zero", mutate: func(c *PipelineConfig) { c.FinalBudget.Cap = 0 }, wantErr: true},
		{name: "threshold above window", mutate: func(c *PipelineConfig) { c.MinInformativeTokens = 2000 }, wantErr: true},
		{name: "zero fallback sentences", mutate: func(c *PipelineConfig) { c.ChunkFallbackSentences = 0 }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *PipelineConfig) { c.Concurrency = 0 }, wantErr: true},
		{name: "empty encoding", mutate: func(c *PipelineConfig) { c.Encoding = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPipelineConfig_Validate_ReportsAllErrors(t *testing.T) {
	cfg := DefaultPipelineConfig()
	cfg.MaxChunks = 0
	cfg.Concurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max chunks")
	assert.Contains(t, err.Error(), "concurrency")
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_chunks: 3
chunk_budget:
  cap: 600
  floor: 300
  absolute_floor: 10
`), 0o600))

	cfg := DefaultPipelineConfig()
	require.NoError(t, cfg.ApplyFile(path))

	assert.Equal(t, 3, cfg.MaxChunks)
	assert.Equal(t, budget.Profile{Cap: 600, Floor: 300, AbsoluteFloor: 10}, cfg.ChunkBudget)
	// untouched fields keep their preset values
	assert.Equal(t, 1024, cfg.MaxTokensPerChunk)
	assert.Equal(t, DefaultPipelineConfig().FinalBudget, cfg.FinalBudget)
}

func TestApplyFile_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_chunkz: 3\n"), 0o600))

	cfg := DefaultPipelineConfig()
	err := cfg.ApplyFile(path)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestApplyFile_Missing(t *testing.T) {
	cfg := DefaultPipelineConfig()
	assert.Error(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestLoadPipelineConfig_Defaults(t *testing.T) {
	clearEnv(t, pipelineEnvVars...)

	cfg, err := LoadPipelineConfig(discardLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPipelineConfig(), cfg)
}

func TestLoadPipelineConfig_Precedence(t *testing.T) {
	clearEnv(t, pipelineEnvVars...)

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_chunks: 3\nconcurrency: 2\n"), 0o600))

	t.Setenv("PIPELINE_PROFILE", "compact")
	t.Setenv("PIPELINE_CONFIG_FILE", path)
	t.Setenv("PIPELINE_CONCURRENCY", "4")
	t.Setenv("TOKENIZER_ENCODING", "words")

	cfg, err := LoadPipelineConfig(discardLogger(), nil)
	require.NoError(t, err)

	assert.Equal(t, 512, cfg.MaxTokensPerChunk, "preset")
	assert.Equal(t, 3, cfg.MaxChunks, "file")
	assert.Equal(t, 4, cfg.Concurrency, "env")
	assert.Equal(t, "words", cfg.Encoding)
}

func TestLoadPipelineConfig_InvalidEnvFallsBack(t *testing.T) {
	clearEnv(t, pipelineEnvVars...)
	t.Setenv("PIPELINE_MAX_CHUNKS", "lots")

	reg := prometheus.NewRegistry()
	metrics := pkgconfig.NewConfigMetrics(reg, "pipeline")

	cfg, err := LoadPipelineConfig(discardLogger(), metrics)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxChunks)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("max_chunks")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
}

func TestLoadPipelineConfig_InvalidCombination(t *testing.T) {
	clearEnv(t, pipelineEnvVars...)
	t.Setenv("PIPELINE_CHUNK_FLOOR", "900")

	_, err := LoadPipelineConfig(discardLogger(), nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadPipelineConfig_UnknownProfile(t *testing.T) {
	clearEnv(t, pipelineEnvVars...)
	t.Setenv("PIPELINE_PROFILE", "gigantic")

	_, err := LoadPipelineConfig(discardLogger(), nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}
