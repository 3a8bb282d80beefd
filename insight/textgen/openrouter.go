package textgen

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// openRouterBaseURL is OpenRouter's OpenAI-compatible endpoint root.
const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouter is a Generator backed by OpenRouter's chat-completions
// endpoint. One request per Generate call, no client-side retry: callers
// that want resilience layer it above, and the pipeline deliberately does
// not.
type OpenRouter struct {
	client openai.Client
}

// NewOpenRouter builds an OpenRouter generator. extra options are appended
// after the defaults, so tests can override the base URL with a local
// server.
func NewOpenRouter(apiKey string, extra ...option.RequestOption) (*OpenRouter, error) {
	if apiKey == "" {
		return nil, errors.New("NewOpenRouter: apiKey is empty")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(openRouterBaseURL),
	}
	opts = append(opts, extra...)
	return &OpenRouter{client: openai.NewClient(opts...)}, nil
}

// Generate sends one chat-completion request. Routing preferences go out
// verbatim in the request body's "provider" block; a response schema, when
// present, is attached as a strict json_schema response format.
func (g *OpenRouter) Generate(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	}
	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxOutputTokens)
	}
	if req.ResponseSchema != nil {
		name := req.SchemaName
		if name == "" {
			name = "response"
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   name,
					Schema: req.ResponseSchema,
					Strict: openai.Bool(true),
				},
				Type: "json_schema",
			},
		}
	}

	var callOpts []option.RequestOption
	if req.Routing != nil {
		callOpts = append(callOpts, option.WithJSONSet("provider", req.Routing))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params, callOpts...)
	if err != nil {
		return "", fmt.Errorf("OpenRouter.Generate: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("OpenRouter.Generate: response has no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
