// Command transcript-watch monitors a directory for dropped transcript JSON
// files and runs the insights pipeline on each one, writing a markdown report
// and insights JSON per video and archiving the processed transcript.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/staplehorsey/youtube-insights-extractor/insight"
	"github.com/staplehorsey/youtube-insights-extractor/insight/fileutil"
	"github.com/staplehorsey/youtube-insights-extractor/insight/textgen"
	"github.com/staplehorsey/youtube-insights-extractor/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger := slog.New(logging.NewPrettyHandler(os.Stderr, logging.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: cfg.Logging.slogLevel()},
	}))

	gen, err := buildGenerator(cfg.Provider)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	for _, dir := range []string{cfg.Paths.Input, cfg.Paths.Output, cfg.Paths.Archived} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Fprintln(os.Stderr, fmt.Errorf("mkdir %s: %w", dir, err).Error())
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := func(ctx context.Context, path string) error {
		return processTranscript(ctx, cfg, gen, logger, path)
	}

	w, err := newDirWatcher(cfg.Paths.Input, handler, logger, cfg.Performance.MaxConcurrent,
		time.Duration(cfg.Performance.SettleMs)*time.Millisecond)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer w.close()

	logger.Info("watching for transcripts",
		"input", cfg.Paths.Input,
		"output", cfg.Paths.Output,
		"provider", cfg.Provider.Name,
		"max_concurrent", cfg.Performance.MaxConcurrent)

	if err := w.sweep(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("sweep failed", "error", err.Error())
		os.Exit(1)
	}

	if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("watcher stopped", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("stopped")
}

func buildGenerator(pc ProviderConfig) (textgen.Generator, error) {
	switch pc.Name {
	case "openrouter":
		key := os.Getenv("OPENROUTER_API_KEY")
		if key == "" {
			return nil, errors.New("missing OPENROUTER_API_KEY")
		}
		return textgen.NewOpenRouter(key)
	case "gemini":
		keys := splitEnvKeys(os.Getenv("GEMINI_API_KEYS"))
		if len(keys) == 0 {
			keys = splitEnvKeys(os.Getenv("GEMINI_API_KEY"))
		}
		if len(keys) == 0 {
			return nil, errors.New("missing GEMINI_API_KEYS")
		}
		return textgen.NewGemini(keys)
	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Name)
	}
}

func splitEnvKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// processTranscript runs the full pipeline for one dropped transcript file
// and archives the input afterwards so a restart does not reprocess it.
func processTranscript(ctx context.Context, cfg *Config, gen textgen.Generator, logger *slog.Logger, path string) error {
	videoID := videoIDFromPath(path)

	segments, err := insight.LoadTranscript(path)
	if err != nil {
		return err
	}

	extractor, err := insight.NewExtractor(gen, optionsFrom(cfg, logger, videoID))
	if err != nil {
		return err
	}

	insights, err := extractor.ProcessTranscript(ctx, segments)
	if err != nil {
		return err
	}

	report := insight.AssembleReport(*insights, videoID, time.Now())

	reportPath := filepath.Join(cfg.Paths.Output, videoID+".report.md")
	insightsPath := filepath.Join(cfg.Paths.Output, videoID+".insights.json")
	if err := fileutil.WriteFileAtomic(reportPath, []byte(report.Markdown()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := fileutil.WriteJSONAtomic(insightsPath, report, true); err != nil {
		return fmt.Errorf("write insights: %w", err)
	}

	archived := filepath.Join(cfg.Paths.Archived, filepath.Base(path))
	if err := os.Rename(path, archived); err != nil {
		return fmt.Errorf("archive transcript: %w", err)
	}

	logger.Info("transcript processed",
		"video_id", videoID,
		"entities", len(report.Entities),
		"report", reportPath)
	return nil
}

func optionsFrom(cfg *Config, logger *slog.Logger, videoID string) insight.Options {
	unit := insight.OverlapSegments
	if cfg.Chunking.OverlapUnit == "tokens" {
		unit = insight.OverlapTokens
	}

	var routing *textgen.ProviderPreferences
	if cfg.Provider.Sort != "" || len(cfg.Provider.Order) > 0 || cfg.Provider.NoFallbacks {
		routing = &textgen.ProviderPreferences{
			Sort:  cfg.Provider.Sort,
			Order: cfg.Provider.Order,
		}
		if cfg.Provider.NoFallbacks {
			f := false
			routing.AllowFallbacks = &f
		}
	}

	return insight.Options{
		NoteModel:    cfg.Provider.Model,
		SummaryModel: cfg.Provider.SummaryModel,
		Chunking: insight.ChunkConfig{
			BudgetTokens:   cfg.Chunking.BudgetTokens,
			PromptOverhead: cfg.Chunking.OverheadTokens,
			OverlapWindow:  cfg.Chunking.Overlap,
			OverlapUnit:    unit,
		},
		Routing: routing,
		OnProgress: func(p insight.Progress) {
			if p.Total > 0 {
				logger.Info("processing chunk", "video_id", videoID, "stage", p.Stage, "chunk", p.Chunk, "total", p.Total)
				return
			}
			logger.Info("running stage", "video_id", videoID, "stage", p.Stage)
		},
	}
}

func videoIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".transcript")
}
