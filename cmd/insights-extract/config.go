package main

import (
	"errors"
	"path/filepath"
)

// Default models when -provider=gemini. The native API drops the OpenRouter
// vendor prefix and the ":free" routing suffix.
const (
	defaultGeminiNoteModel    = "gemini-2.0-flash"
	defaultGeminiSummaryModel = "gemini-2.0-flash-thinking-exp"
)

type Config struct {
	InPath       string
	OutDir       string
	VideoID      string
	Provider     string
	Model        string
	SummaryModel string

	BudgetTokens   float64
	OverheadTokens float64
	OverlapWindow  int
	OverlapUnit    string

	MaxNoteTokens    int64
	MaxEntityTokens  int64
	MaxSummaryTokens int64

	RoutingSort  string
	RoutingOrder string
	NoFallbacks  bool

	Pretty    bool
	Overwrite bool
	Verbose   bool
	APIKey    string
}

func (c Config) Validate() error {
	if c.InPath == "" {
		return errors.New("missing -in")
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.Provider != "openrouter" && c.Provider != "gemini" {
		return errors.New(`provider must be "openrouter" or "gemini"`)
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.SummaryModel == "" {
		return errors.New("missing -summary-model")
	}
	if c.BudgetTokens <= 0 {
		return errors.New("budget must be > 0")
	}
	if c.OverheadTokens < 0 {
		return errors.New("overhead must be >= 0")
	}
	if c.OverheadTokens >= c.BudgetTokens {
		return errors.New("overhead must be < budget")
	}
	if c.OverlapWindow < 0 {
		return errors.New("overlap must be >= 0")
	}
	if c.OverlapUnit != "segments" && c.OverlapUnit != "tokens" {
		return errors.New(`overlap-unit must be "segments" or "tokens"`)
	}
	if c.MaxNoteTokens < 0 || c.MaxEntityTokens < 0 || c.MaxSummaryTokens < 0 {
		return errors.New("max token caps must be >= 0")
	}
	if c.RoutingSort != "" && c.RoutingSort != "throughput" && c.RoutingSort != "price" {
		return errors.New(`sort must be "throughput" or "price"`)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InPath:         "",
		OutDir:         filepath.FromSlash("insights"),
		Provider:       "openrouter",
		BudgetTokens:   16000,
		OverheadTokens: 1000,
		OverlapWindow:  10,
		OverlapUnit:    "segments",
	}
}
