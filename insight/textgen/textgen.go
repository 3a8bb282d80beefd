// Package textgen abstracts remote text generation behind a single-call
// Generator capability and provides clients for OpenRouter's
// chat-completions surface and the Gemini API.
package textgen

import (
	"context"
	"errors"
)

// ProviderPreferences mirrors OpenRouter's provider routing block. The
// pipeline passes it through verbatim; nothing on this side interprets the
// fields.
type ProviderPreferences struct {
	// Sort orders candidate providers, "throughput" or "price".
	Sort string `json:"sort,omitempty"`

	// Order pins an explicit provider precedence list.
	Order []string `json:"order,omitempty"`

	// AllowFallbacks permits routing past the preferred providers. OpenRouter
	// defaults it to true; nil leaves that default in place.
	AllowFallbacks *bool `json:"allow_fallbacks,omitempty"`
}

// Request is one generation call.
type Request struct {
	// Prompt is the full user-role request text.
	Prompt string

	// Model is the provider-side model identifier.
	Model string

	// MaxOutputTokens caps the response length when > 0; 0 leaves the
	// provider default in place.
	MaxOutputTokens int64

	// Routing carries OpenRouter provider preferences. Generators for other
	// providers ignore it.
	Routing *ProviderPreferences

	// ResponseSchema, when non-nil, asks the provider for strict
	// schema-constrained JSON output (see SchemaFor). SchemaName labels the
	// schema; it defaults to "response".
	ResponseSchema map[string]interface{}
	SchemaName     string
}

func (r Request) validate() error {
	if r.Prompt == "" {
		return errors.New("textgen: request prompt is empty")
	}
	if r.Model == "" {
		return errors.New("textgen: request model is empty")
	}
	return nil
}

// Generator issues one text-generation call. Implementations own transport,
// auth, and timeouts; callers own everything about the prompt. A non-success
// response surfaces as an error, never as partial output.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
