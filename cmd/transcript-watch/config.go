package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths       PathsConfig       `yaml:"paths"`
	Provider    ProviderConfig    `yaml:"provider"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Performance PerformanceConfig `yaml:"performance"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type PathsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Archived string `yaml:"archived"`
}

type ProviderConfig struct {
	Name         string   `yaml:"name"`
	Model        string   `yaml:"model"`
	SummaryModel string   `yaml:"summary_model"`
	Sort         string   `yaml:"sort"`
	Order        []string `yaml:"order"`
	NoFallbacks  bool     `yaml:"no_fallbacks"`
}

type ChunkingConfig struct {
	BudgetTokens   float64 `yaml:"budget_tokens"`
	OverheadTokens float64 `yaml:"overhead_tokens"`
	Overlap        int     `yaml:"overlap"`
	OverlapUnit    string  `yaml:"overlap_unit"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	SettleMs      int `yaml:"settle_ms"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func (c *Config) Validate() error {
	if c.Paths.Input == "" {
		return errors.New("paths.input is required")
	}
	if c.Paths.Output == "" {
		return errors.New("paths.output is required")
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/processed"
	}
	// Writing artifacts or archives into the watched directory would feed
	// the watcher its own output.
	if c.Paths.Output == c.Paths.Input {
		return errors.New("paths.output must differ from paths.input")
	}
	if c.Paths.Archived == c.Paths.Input {
		return errors.New("paths.archived must differ from paths.input")
	}

	if c.Provider.Name == "" {
		c.Provider.Name = "openrouter"
	}
	if c.Provider.Name != "openrouter" && c.Provider.Name != "gemini" {
		return fmt.Errorf("provider.name %q is not supported", c.Provider.Name)
	}
	if c.Provider.Model == "" {
		if c.Provider.Name == "gemini" {
			c.Provider.Model = "gemini-2.0-flash"
		} else {
			c.Provider.Model = "google/gemini-2.0-flash-exp:free"
		}
	}
	if c.Provider.SummaryModel == "" {
		if c.Provider.Name == "gemini" {
			c.Provider.SummaryModel = "gemini-2.0-flash-thinking-exp"
		} else {
			c.Provider.SummaryModel = "google/gemini-2.0-flash-thinking-exp:free"
		}
	}
	if c.Provider.Sort != "" && c.Provider.Sort != "throughput" && c.Provider.Sort != "price" {
		return fmt.Errorf("provider.sort %q is not supported", c.Provider.Sort)
	}

	if c.Chunking.BudgetTokens == 0 {
		c.Chunking.BudgetTokens = 16000
	}
	if c.Chunking.BudgetTokens < 0 {
		return errors.New("chunking.budget_tokens must be > 0")
	}
	if c.Chunking.OverheadTokens == 0 {
		c.Chunking.OverheadTokens = 1000
	}
	if c.Chunking.OverheadTokens < 0 || c.Chunking.OverheadTokens >= c.Chunking.BudgetTokens {
		return errors.New("chunking.overhead_tokens must be >= 0 and < budget_tokens")
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = 10
	}
	if c.Chunking.Overlap < 0 {
		return errors.New("chunking.overlap must be >= 0")
	}
	if c.Chunking.OverlapUnit == "" {
		c.Chunking.OverlapUnit = "segments"
	}
	if c.Chunking.OverlapUnit != "segments" && c.Chunking.OverlapUnit != "tokens" {
		return fmt.Errorf("chunking.overlap_unit %q is not supported", c.Chunking.OverlapUnit)
	}

	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Performance.MaxConcurrent < 0 {
		return errors.New("performance.max_concurrent must be > 0")
	}
	if c.Performance.SettleMs == 0 {
		c.Performance.SettleMs = 500
	}
	if c.Performance.SettleMs < 0 {
		return errors.New("performance.settle_ms must be >= 0")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l LoggingConfig) slogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
