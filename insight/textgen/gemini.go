package textgen

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Gemini is a Generator that talks to the Gemini API directly instead of
// going through OpenRouter. Free-tier keys exhaust their quota quickly, so
// the client accepts several keys and rotates to the next on quota errors.
// Rotation is internal to this capability: a call makes at most one attempt
// per configured key and fails hard when every attempt is spent. A single
// Gemini is safe for concurrent use. Routing preferences in the request are
// OpenRouter-specific and ignored here.
type Gemini struct {
	keys []string

	mu      sync.Mutex
	current int
}

// NewGemini builds a Gemini generator from one or more API keys. Blank keys
// are dropped.
func NewGemini(keys []string) (*Gemini, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if s := strings.TrimSpace(k); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil, errors.New("NewGemini: no API keys")
	}
	return &Gemini{keys: cleaned}, nil
}

// Generate sends one generation request, rotating across keys on quota
// exhaustion.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	var cfg *genai.GenerateContentConfig
	if req.MaxOutputTokens > 0 {
		cfg = &genai.GenerateContentConfig{MaxOutputTokens: outputTokenCap(req.MaxOutputTokens)}
	}

	attempts := len(g.keys)
	var lastErr error
	for range attempts {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.currentKey(),
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = fmt.Errorf("create client: %w", err)
			g.rotateKey()
			continue
		}

		result, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
		if err != nil {
			if isQuotaError(err) {
				lastErr = err
				g.rotateKey()
				continue
			}
			return "", fmt.Errorf("Gemini.Generate: %w", err)
		}

		if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
			var b strings.Builder
			for _, part := range result.Candidates[0].Content.Parts {
				if part.Text != "" {
					b.WriteString(part.Text)
				}
			}
			return b.String(), nil
		}
		return "", errors.New("Gemini.Generate: empty response")
	}

	return "", fmt.Errorf("Gemini.Generate: all %d API keys exhausted: %w", attempts, lastErr)
}

// currentKey snapshots the active key. Concurrent callers rotate the shared
// cursor, so the snapshot is taken under the lock; the attempt then runs on
// that coherent key even if another call rotates meanwhile.
func (g *Gemini) currentKey() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.keys[g.current]
}

func (g *Gemini) rotateKey() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current = (g.current + 1) % len(g.keys)
}

// outputTokenCap narrows the request cap to genai's int32 config field.
// Anything past int32 range is effectively uncapped, so it clamps rather
// than overflows.
func outputTokenCap(n int64) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}

func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
