// Package config loads and validates the application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"scholar-abstracts/internal/budget"
	pkgconfig "scholar-abstracts/internal/pkg/config"
	"scholar-abstracts/internal/tokenizer"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	// PresetDefault matches a model accepting 1024 input tokens.
	PresetDefault = "default"

	// PresetCompact matches a model accepting 512 input tokens.
	PresetCompact = "compact"
)

// PipelineConfig is the single record that parameterizes the abstract pipeline.
type PipelineConfig struct {
	// MaxTokensPerChunk is the window size of the chunker.
	MaxTokensPerChunk int `yaml:"max_tokens_per_chunk"`

	// MaxChunks bounds how many windows per document are summarized.
	// Trailing windows are dropped.
	MaxChunks int `yaml:"max_chunks"`

	// ChunkBudget is the length profile for per-chunk summarization.
	ChunkBudget budget.Profile `yaml:"chunk_budget"`

	// FinalBudget is the length profile for the reduction over combined summaries.
	FinalBudget budget.Profile `yaml:"final_budget"`

	// MinInformativeTokens is the chunk size below which the model is skipped.
	MinInformativeTokens int `yaml:"min_informative_tokens"`

	// ChunkFallbackSentences is the sentence count of a per-chunk fallback.
	ChunkFallbackSentences int `yaml:"chunk_fallback_sentences"`

	// FinalFallbackSentences is the sentence count of the final-stage fallback.
	FinalFallbackSentences int `yaml:"final_fallback_sentences"`

	// Concurrency is the number of documents processed in parallel.
	// 1 processes documents strictly sequentially.
	Concurrency int `yaml:"concurrency"`

	// Encoding names the tokenizer encoding.
	Encoding string `yaml:"encoding"`
}

// DefaultPipelineConfig returns the preset for 1024-token models.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxTokensPerChunk:      1024,
		MaxChunks:              5,
		ChunkBudget:            budget.Profile{Cap: 800, Floor: 400, AbsoluteFloor: 30},
		FinalBudget:            budget.Profile{Cap: 500, Floor: 200, AbsoluteFloor: 30},
		MinInformativeTokens:   50,
		ChunkFallbackSentences: 3,
		FinalFallbackSentences: 50,
		Concurrency:            1,
		Encoding:               tokenizer.EncodingCL100kBase,
	}
}

// CompactPipelineConfig returns the preset for 512-token models.
func CompactPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaxTokensPerChunk:      512,
		MaxChunks:              5,
		ChunkBudget:            budget.Profile{Cap: 300, Floor: 120, AbsoluteFloor: 20},
		FinalBudget:            budget.Profile{Cap: 200, Floor: 80, AbsoluteFloor: 20},
		MinInformativeTokens:   50,
		ChunkFallbackSentences: 3,
		FinalFallbackSentences: 10,
		Concurrency:            1,
		Encoding:               tokenizer.EncodingCL100kBase,
	}
}

// Preset returns the named preset.
func Preset(name string) (PipelineConfig, error) {
	switch name {
	case PresetDefault, "":
		return DefaultPipelineConfig(), nil
	case PresetCompact:
		return CompactPipelineConfig(), nil
	default:
		return PipelineConfig{}, fmt.Errorf("%w: unknown pipeline preset %q", ErrInvalidConfig, name)
	}
}

// Validate checks every field and reports all violations together.
func (c PipelineConfig) Validate() error {
	var errs []error

	if err := pkgconfig.ValidateIntRange(c.MaxTokensPerChunk, 2, 1_000_000); err != nil {
		errs = append(errs, fmt.Errorf("max tokens per chunk: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.MaxChunks, 1, 1000); err != nil {
		errs = append(errs, fmt.Errorf("max chunks: %w", err))
	}
	if err := c.ChunkBudget.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("chunk budget: %w", err))
	}
	if err := c.FinalBudget.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("final budget: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.MinInformativeTokens, 0, c.MaxTokensPerChunk); err != nil {
		errs = append(errs, fmt.Errorf("min informative tokens: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.ChunkFallbackSentences, 1, 1000); err != nil {
		errs = append(errs, fmt.Errorf("chunk fallback sentences: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.FinalFallbackSentences, 1, 1000); err != nil {
		errs = append(errs, fmt.Errorf("final fallback sentences: %w", err))
	}
	if err := pkgconfig.ValidateIntRange(c.Concurrency, 1, 64); err != nil {
		errs = append(errs, fmt.Errorf("concurrency: %w", err))
	}
	if c.Encoding == "" {
		errs = append(errs, errors.New("encoding cannot be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ApplyFile overlays the YAML file at path onto c. Fields absent from the
// file keep their current values; unknown fields are rejected.
func (c *PipelineConfig) ApplyFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open pipeline config file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// LoadPipelineConfig builds the pipeline configuration.
//
// Order of precedence (lowest first):
//  1. preset selected by PIPELINE_PROFILE (default|compact)
//  2. YAML file named by PIPELINE_CONFIG_FILE
//  3. individual PIPELINE_* and TOKENIZER_ENCODING variables
//
// Unparsable environment values fall back to the current value with a
// warning (fail-open). The merged result is then validated as a whole and an
// invalid combination is returned as an error (fail-closed).
//
// metrics may be nil.
func LoadPipelineConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (PipelineConfig, error) {
	cfg, err := Preset(pkgconfig.LoadEnvString("PIPELINE_PROFILE", PresetDefault))
	if err != nil {
		return PipelineConfig{}, err
	}

	if path := os.Getenv("PIPELINE_CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return PipelineConfig{}, err
		}
	}

	fallbacks := 0
	loadInt := func(field, key string, target *int) {
		res := pkgconfig.LoadEnvInt(key, *target, nil)
		if res.FallbackApplied {
			fallbacks++
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("env_key", key),
				slog.String("warning", res.Warning))
			if metrics != nil {
				metrics.RecordFallback(field)
			}
		}
		*target = res.Value
	}

	loadInt("max_tokens_per_chunk", "PIPELINE_MAX_TOKENS_PER_CHUNK", &cfg.MaxTokensPerChunk)
	loadInt("max_chunks", "PIPELINE_MAX_CHUNKS", &cfg.MaxChunks)
	loadInt("chunk_budget.cap", "PIPELINE_CHUNK_CAP", &cfg.ChunkBudget.Cap)
	loadInt("chunk_budget.floor", "PIPELINE_CHUNK_FLOOR", &cfg.ChunkBudget.Floor)
	loadInt("chunk_budget.absolute_floor", "PIPELINE_CHUNK_ABS_FLOOR", &cfg.ChunkBudget.AbsoluteFloor)
	loadInt("final_budget.cap", "PIPELINE_FINAL_CAP", &cfg.FinalBudget.Cap)
	loadInt("final_budget.floor", "PIPELINE_FINAL_FLOOR", &cfg.FinalBudget.Floor)
	loadInt("final_budget.absolute_floor", "PIPELINE_FINAL_ABS_FLOOR", &cfg.FinalBudget.AbsoluteFloor)
	loadInt("min_informative_tokens", "PIPELINE_MIN_INFORMATIVE_TOKENS", &cfg.MinInformativeTokens)
	loadInt("chunk_fallback_sentences", "PIPELINE_CHUNK_FALLBACK_SENTENCES", &cfg.ChunkFallbackSentences)
	loadInt("final_fallback_sentences", "PIPELINE_FINAL_FALLBACK_SENTENCES", &cfg.FinalFallbackSentences)
	loadInt("concurrency", "PIPELINE_CONCURRENCY", &cfg.Concurrency)
	cfg.Encoding = pkgconfig.LoadEnvString("TOKENIZER_ENCODING", cfg.Encoding)

	if metrics != nil {
		metrics.RecordLoad(fallbacks)
	}

	if err := cfg.Validate(); err != nil {
		return PipelineConfig{}, err
	}
	return cfg, nil
}
