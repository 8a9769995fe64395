// Command abstract reads scholar search results and writes one abstract per
// result, produced by the hierarchical summarization pipeline.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"scholar-abstracts/internal/config"
	"scholar-abstracts/internal/domain/entity"
	"scholar-abstracts/internal/fallback"
	"scholar-abstracts/internal/infra/fetcher"
	"scholar-abstracts/internal/infra/summarizer"
	"scholar-abstracts/internal/ingest"
	"scholar-abstracts/internal/observability/logging"
	"scholar-abstracts/internal/observability/metrics"
	pkgconfig "scholar-abstracts/internal/pkg/config"
	"scholar-abstracts/internal/textclean"
	"scholar-abstracts/internal/tokenizer"
	"scholar-abstracts/internal/usecase/abstract"
)

type runOptions struct {
	input        string
	output       string
	clean        bool
	useCleaned   bool
	dedupe       bool
	fetchMissing bool
}

func main() {
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		logger.Error("abstract run failed", slog.Any("error", err))
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for input that is not scholar results and 1 for any other failure.
func exitCode(err error) int {
	if errors.Is(err, entity.ErrInvalidInput) {
		return 2
	}
	return 1
}

// initLogger initializes the JSON logger on stderr. stdout carries the results.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "abstract",
		Short: "Summarize scholar results into abstracts",
		Long: "Read a JSON array of scholar results, reduce the full text of each result " +
			"to an abstract and write a JSON array of {title, abstract} records.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := loadRunOptions(cmd)
			reg := prometheus.NewRegistry()
			if os.Getenv("METRICS_PORT") != "" {
				startMetricsServer(cmd.Context(), logger, reg)
			}
			return run(cmd.Context(), logger, reg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringP("input", "i", "", "Path to the scholar results JSON file")
	cmd.Flags().StringP("output", "o", "", "Path of the abstracts JSON file (default: stdout)")
	cmd.Flags().Bool("clean", false, "Strip links, citations and metadata sentences before summarizing")
	cmd.Flags().Bool("use-cleaned", false, "Prefer \"Cleaned Text Content\" over \"Full Text Content\"")
	cmd.Flags().Bool("dedupe", false, "Drop untitled results and repeated titles")
	cmd.Flags().Bool("fetch-missing", false, "Download the article page of results without text")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func loadRunOptions(cmd *cobra.Command) runOptions {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	clean, _ := cmd.Flags().GetBool("clean")
	useCleaned, _ := cmd.Flags().GetBool("use-cleaned")
	dedupe, _ := cmd.Flags().GetBool("dedupe")
	fetchMissing, _ := cmd.Flags().GetBool("fetch-missing")

	return runOptions{
		input:        input,
		output:       output,
		clean:        clean,
		useCleaned:   useCleaned,
		dedupe:       dedupe,
		fetchMissing: fetchMissing,
	}
}

// run loads the configuration, builds the pipeline and processes the input.
// Configuration and input errors abort the run. Per-document failures do not.
func run(ctx context.Context, logger *slog.Logger, reg prometheus.Registerer, opts runOptions, stdout io.Writer) error {
	ctx = logging.WithLogger(ctx, logger)

	pipelineCfg, err := config.LoadPipelineConfig(logger, pkgconfig.NewConfigMetrics(reg, "pipeline"))
	if err != nil {
		return fmt.Errorf("load pipeline configuration: %w", err)
	}
	summarizerCfg, err := config.LoadSummarizerConfig(logger, pkgconfig.NewConfigMetrics(reg, "summarizer"))
	if err != nil {
		return fmt.Errorf("load summarizer configuration: %w", err)
	}
	logger.Info("configuration loaded",
		slog.Int("max_tokens_per_chunk", pipelineCfg.MaxTokensPerChunk),
		slog.Int("max_chunks", pipelineCfg.MaxChunks),
		slog.Int("concurrency", pipelineCfg.Concurrency),
		slog.String("encoding", pipelineCfg.Encoding),
		slog.String("summarizer", summarizerCfg.Type))

	driver, err := buildDriver(pipelineCfg, summarizerCfg, reg)
	if err != nil {
		return err
	}

	docs, err := buildLoader(logger, reg, opts).LoadFile(ctx, opts.input)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	abstracts := driver.Run(ctx, docs)

	if opts.output == "" {
		return writeAbstracts(stdout, abstracts)
	}
	if err := writeAbstractsFile(opts.output, abstracts); err != nil {
		return err
	}
	logger.Info("abstracts written",
		slog.String("path", opts.output),
		slog.Int("documents", len(abstracts)))
	return nil
}

// buildDriver wires codec, summarizer, engine and reducer into a Driver.
func buildDriver(pipelineCfg config.PipelineConfig, summarizerCfg config.SummarizerConfig, reg prometheus.Registerer) (*abstract.Driver, error) {
	tokenizer.InitBPELoader(tokenizerCacheDir())
	codec, err := tokenizer.New(pipelineCfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("create tokenizer: %w", err)
	}

	backend, err := summarizer.New(summarizerCfg, codec, summarizer.NewPrometheusSummaryMetrics(reg))
	if err != nil {
		return nil, fmt.Errorf("create summarizer: %w", err)
	}

	recorder := metrics.NewPrometheusRecorder(reg)
	engine := abstract.NewEngine(backend, fallback.New())
	reducer, err := abstract.NewReducer(codec, engine, pipelineCfg, abstract.WithRecorder(recorder))
	if err != nil {
		return nil, fmt.Errorf("create reducer: %w", err)
	}
	return abstract.NewDriver(reducer, pipelineCfg.Concurrency, abstract.WithDriverRecorder(recorder)), nil
}

func buildLoader(logger *slog.Logger, reg prometheus.Registerer, opts runOptions) *ingest.Loader {
	loaderOpts := ingest.Options{
		UseCleaned: opts.useCleaned,
		Dedupe:     opts.dedupe,
	}
	if opts.clean {
		loaderOpts.Clean = textclean.New().Clean
	}
	if opts.fetchMissing {
		fetchCfg := fetcher.LoadConfigFromEnv(logger, pkgconfig.NewConfigMetrics(reg, "content_fetch"))
		loaderOpts.Fetcher = fetcher.NewReadabilityFetcher(fetchCfg)
		loaderOpts.FetchParallelism = fetchCfg.Parallelism
		logger.Info("content fetching enabled",
			slog.Int("parallelism", fetchCfg.Parallelism),
			slog.Duration("timeout", fetchCfg.Timeout))
	}
	return ingest.NewLoader(fetcher.NewExtractor(), loaderOpts)
}

// tokenizerCacheDir returns TOKENIZER_CACHE_DIR, or a directory under the
// user cache directory when unset.
func tokenizerCacheDir() string {
	if dir := os.Getenv("TOKENIZER_CACHE_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "scholar-abstracts", "tiktoken")
}

// writeAbstracts encodes abstracts as an indented JSON array. HTML characters
// are written as-is.
func writeAbstracts(w io.Writer, abstracts []entity.Abstract) error {
	if abstracts == nil {
		abstracts = []entity.Abstract{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(abstracts); err != nil {
		return fmt.Errorf("encode abstracts: %w", err)
	}
	return nil
}

func writeAbstractsFile(path string, abstracts []entity.Abstract) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return writeAbstracts(f, abstracts)
}
