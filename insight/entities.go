package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/staplehorsey/youtube-insights-extractor/insight/textgen"
)

// EntityRecord is one named tool extracted from the notes, with
// timestamp-range provenance. Every field except Name is best-effort: a
// model that omits an optional key yields an empty collection or nil
// pricing, never a decode failure.
type EntityRecord struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	TimestampRanges []string `json:"timestamp_ranges"`
	UsageContext    string   `json:"usage_context"`
	Sentiment       string   `json:"sentiment"`
	Features        []string `json:"features"`
	Limitations     []string `json:"limitations"`
	UseCases        []string `json:"use_cases"`
	Integrations    []string `json:"integrations"`
	Pricing         *string  `json:"pricing"`
	Examples        []string `json:"examples"`
}

// toolsPayload is the wire shape the extraction prompt asks for.
type toolsPayload struct {
	AITools []EntityRecord `json:"ai_tools"`
}

// toolsSchema constrains providers that support structured output. Providers
// without it still see the JSON shape spelled out in the prompt.
var toolsSchema = textgen.SchemaFor[toolsPayload]()

// ParseToolsPayload decodes an extraction response into entity records.
//
// Models wrap their JSON in code fences and prose more often than not, so the
// decoder first narrows the text to the outermost JSON object, probes it for
// the ai_tools array, then strictly decodes just that array. Any failure
// along the way is reported as a *ExtractionFormatError carrying the response
// verbatim; callers keep the raw text and continue without structured
// entities.
func ParseToolsPayload(raw string) ([]EntityRecord, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &ExtractionFormatError{Raw: raw, Err: errors.New("empty response")}
	}

	candidate := extractJSONObject(trimmed)
	if candidate == "" {
		return nil, &ExtractionFormatError{Raw: raw, Err: errors.New("no JSON object in response")}
	}
	if !gjson.Valid(candidate) {
		return nil, &ExtractionFormatError{Raw: raw, Err: errors.New("response is not valid JSON")}
	}

	tools := gjson.Get(candidate, "ai_tools")
	if !tools.Exists() || !tools.IsArray() {
		return nil, &ExtractionFormatError{Raw: raw, Err: errors.New(`response has no "ai_tools" array`)}
	}

	var records []EntityRecord
	if err := json.Unmarshal([]byte(tools.Raw), &records); err != nil {
		return nil, &ExtractionFormatError{Raw: raw, Err: fmt.Errorf("decode ai_tools: %w", err)}
	}
	return records, nil
}

// extractJSONObject narrows s to the span from the first '{' to the last
// '}'. Strips code fences and surrounding prose in one move; returns "" when
// no such span exists.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// extractTools runs the entity-extraction stage: a single call over the full
// running notes. The raw response is returned alongside the records so the
// caller can preserve it even when parsing fails.
func (e *Extractor) extractTools(ctx context.Context, notes string) ([]EntityRecord, string, error) {
	req := textgen.Request{
		Prompt:          buildToolsPrompt(notes),
		Model:           e.opts.NoteModel,
		MaxOutputTokens: e.opts.MaxEntityTokens,
		Routing:         e.opts.Routing,
		ResponseSchema:  toolsSchema,
		SchemaName:      "ai_tools_analysis",
	}
	raw, err := e.generate(ctx, StageEntities, 0, 0, req)
	if err != nil {
		return nil, "", err
	}

	records, err := ParseToolsPayload(raw)
	if err != nil {
		return nil, raw, err
	}
	return records, raw, nil
}
