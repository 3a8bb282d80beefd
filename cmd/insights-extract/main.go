// Command insights-extract turns a YouTube transcript JSON file into
// structured insights: running notes, an AI tool inventory with deep links,
// and an executive summary, written as a markdown report plus an insights
// JSON file.
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
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	_ = godotenv.Load()

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(logging.NewPrettyHandler(os.Stderr, logging.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: level},
	}))

	gen, err := buildGenerator(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	segments, err := insight.LoadTranscript(cfg.InPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	videoID := cfg.VideoID
	if videoID == "" {
		videoID = videoIDFromPath(cfg.InPath)
	}

	reportPath := filepath.Join(cfg.OutDir, videoID+".report.md")
	insightsPath := filepath.Join(cfg.OutDir, videoID+".insights.json")
	if !cfg.Overwrite {
		for _, p := range []string{reportPath, insightsPath} {
			if fileutil.FileExists(p) {
				fmt.Fprintf(os.Stderr, "output already exists: %s (pass -overwrite to replace)\n", p)
				os.Exit(2)
			}
		}
	}

	var chunkTotal int
	opts := insight.Options{
		NoteModel:        cfg.Model,
		SummaryModel:     cfg.SummaryModel,
		Chunking:         chunkConfigFrom(cfg),
		MaxNoteTokens:    cfg.MaxNoteTokens,
		MaxEntityTokens:  cfg.MaxEntityTokens,
		MaxSummaryTokens: cfg.MaxSummaryTokens,
		Routing:          routingFrom(cfg),
		OnProgress: func(p insight.Progress) {
			if p.Total > 0 {
				chunkTotal = p.Total
				logger.Info("processing chunk", "stage", p.Stage, "chunk", p.Chunk, "total", p.Total)
				return
			}
			logger.Info("running stage", "stage", p.Stage)
		},
	}

	extractor, err := insight.NewExtractor(gen, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger.Info("loaded transcript", "video_id", videoID, "segments", len(segments))

	started := time.Now()
	insights, err := extractor.ProcessTranscript(ctx, segments)
	if err != nil {
		logger.Error("extraction failed", "error", err.Error())
		os.Exit(1)
	}
	if insights.Entities == nil && insights.EntitiesRaw != "" {
		logger.Warn("tool payload could not be parsed, keeping raw text in the report")
	}

	report := insight.AssembleReport(*insights, videoID, time.Now())

	if err := fileutil.WriteFileAtomic(reportPath, []byte(report.Markdown()), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("write report: %w", err).Error())
		os.Exit(1)
	}
	if err := fileutil.WriteJSONAtomic(insightsPath, report, cfg.Pretty); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("write insights: %w", err).Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "video_id=%s segments=%d chunks=%d entities=%d elapsed=%s report=%s insights=%s\n",
		videoID, len(segments), chunkTotal, len(report.Entities), time.Since(started).Round(time.Second), reportPath, insightsPath)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InPath, "in", cfg.InPath, "Path to transcript JSON (segment array, or object with a transcript/segments key)")
	fs.StringVar(&cfg.OutDir, "out", cfg.OutDir, "Output directory for the report and insights JSON")
	fs.StringVar(&cfg.VideoID, "video-id", "", "YouTube video ID for deep links (default: derived from the input filename)")
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "Text generation provider: openrouter or gemini")
	fs.StringVar(&cfg.Model, "model", "", "Model for note-taking and tool extraction (default depends on -provider)")
	fs.StringVar(&cfg.SummaryModel, "summary-model", "", "Model override for the final summary (default depends on -provider)")
	fs.Float64Var(&cfg.BudgetTokens, "budget", cfg.BudgetTokens, "Estimated-token budget per chunk, including prompt overhead")
	fs.Float64Var(&cfg.OverheadTokens, "overhead", cfg.OverheadTokens, "Tokens reserved out of -budget for prompt scaffolding")
	fs.IntVar(&cfg.OverlapWindow, "overlap", cfg.OverlapWindow, "Closing context carried into the next chunk (0 disables)")
	fs.StringVar(&cfg.OverlapUnit, "overlap-unit", cfg.OverlapUnit, "Unit for -overlap: segments or tokens")
	fs.Int64Var(&cfg.MaxNoteTokens, "max-note-tokens", 0, "Max output tokens per note call (0 = provider default)")
	fs.Int64Var(&cfg.MaxEntityTokens, "max-entity-tokens", 0, "Max output tokens for the tool extraction call (0 = provider default)")
	fs.Int64Var(&cfg.MaxSummaryTokens, "max-summary-tokens", 0, "Max output tokens for the summary call (0 = provider default)")
	fs.StringVar(&cfg.RoutingSort, "sort", "", "OpenRouter provider routing sort: throughput or price")
	fs.StringVar(&cfg.RoutingOrder, "providers", "", "Comma-separated OpenRouter provider order")
	fs.BoolVar(&cfg.NoFallbacks, "no-fallbacks", false, "Disallow OpenRouter provider fallbacks")
	fs.BoolVar(&cfg.Pretty, "pretty", false, "Pretty-print the insights JSON file")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log at debug level")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key (overrides OPENROUTER_API_KEY / GEMINI_API_KEYS env vars)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.Model == "" {
		if cfg.Provider == "gemini" {
			cfg.Model = defaultGeminiNoteModel
		} else {
			cfg.Model = insight.DefaultNoteModel
		}
	}
	if cfg.SummaryModel == "" {
		if cfg.Provider == "gemini" {
			cfg.SummaryModel = defaultGeminiSummaryModel
		} else {
			cfg.SummaryModel = insight.DefaultSummaryModel
		}
	}
	if cfg.InPath != "" {
		cfg.InPath = filepath.Clean(cfg.InPath)
	}
	cfg.OutDir = filepath.Clean(cfg.OutDir)
	return cfg, nil
}

func buildGenerator(cfg Config) (textgen.Generator, error) {
	switch cfg.Provider {
	case "openrouter":
		key := cfg.APIKey
		if key == "" {
			key = os.Getenv("OPENROUTER_API_KEY")
		}
		if key == "" {
			return nil, errors.New("missing OPENROUTER_API_KEY (or pass -api-key)")
		}
		return textgen.NewOpenRouter(key)
	case "gemini":
		keys := splitKeys(cfg.APIKey)
		if len(keys) == 0 {
			keys = splitKeys(os.Getenv("GEMINI_API_KEYS"))
		}
		if len(keys) == 0 {
			keys = splitKeys(os.Getenv("GEMINI_API_KEY"))
		}
		if len(keys) == 0 {
			return nil, errors.New("missing GEMINI_API_KEYS (or pass -api-key)")
		}
		return textgen.NewGemini(keys)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func routingFrom(cfg Config) *textgen.ProviderPreferences {
	if cfg.RoutingSort == "" && cfg.RoutingOrder == "" && !cfg.NoFallbacks {
		return nil
	}
	prefs := &textgen.ProviderPreferences{Sort: cfg.RoutingSort}
	for _, name := range strings.Split(cfg.RoutingOrder, ",") {
		if name = strings.TrimSpace(name); name != "" {
			prefs.Order = append(prefs.Order, name)
		}
	}
	if cfg.NoFallbacks {
		f := false
		prefs.AllowFallbacks = &f
	}
	return prefs
}

func chunkConfigFrom(cfg Config) insight.ChunkConfig {
	unit := insight.OverlapSegments
	if cfg.OverlapUnit == "tokens" {
		unit = insight.OverlapTokens
	}
	return insight.ChunkConfig{
		BudgetTokens:   cfg.BudgetTokens,
		PromptOverhead: cfg.OverheadTokens,
		OverlapWindow:  cfg.OverlapWindow,
		OverlapUnit:    unit,
	}
}

// videoIDFromPath falls back to the input filename when -video-id is not
// given; transcripts commonly arrive as <video id>.transcript.json.
func videoIDFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSuffix(base, ".transcript")
}
