// Package insight turns a long timestamped transcript into structured
// insights: running notes taken chunk by chunk, a catalog of the AI tools
// discussed with timestamp provenance, and an executive summary. The heavy
// lifting is the chunking and multi-stage aggregation pipeline; all remote
// text generation goes through the textgen.Generator capability.
package insight

import (
	"context"
	"errors"

	"github.com/staplehorsey/youtube-insights-extractor/insight/textgen"
)

// Default model identifiers. The free Gemini flash tier handles the
// note-taking and extraction workload; the thinking variant writes the
// executive summary.
const (
	DefaultNoteModel    = "google/gemini-2.0-flash-exp:free"
	DefaultSummaryModel = "google/gemini-2.0-flash-thinking-exp:free"
)

// Progress is one observability event. Chunk is the 1-based chunk number for
// chunk-scoped stages and 0 otherwise; Total follows the same convention.
type Progress struct {
	Stage string
	Chunk int
	Total int
}

// VideoInsights is the terminal artifact of one pipeline run. EntitiesRaw
// always carries the extraction response as received, even when it failed to
// parse, so a rendering layer can degrade to showing it opaquely.
type VideoInsights struct {
	RunningNotes string         `json:"running_notes"`
	Entities     []EntityRecord `json:"entities"`
	EntitiesRaw  string         `json:"entities_raw"`
	FinalSummary string         `json:"final_summary"`
}

// Options configures an Extractor. The zero value is usable: models and
// chunking fall back to the defaults above.
type Options struct {
	// NoteModel runs note-taking and entity extraction; SummaryModel writes
	// the executive summary.
	NoteModel    string
	SummaryModel string

	// Chunking bounds chunk size and overlap. The zero value means
	// DefaultChunkConfig().
	Chunking ChunkConfig

	// Per-stage response caps, passed through to the generator; 0 leaves the
	// provider default in place.
	MaxNoteTokens    int64
	MaxEntityTokens  int64
	MaxSummaryTokens int64

	// Routing carries OpenRouter provider preferences verbatim on every
	// call. Nil sends none.
	Routing *textgen.ProviderPreferences

	// OnProgress receives stage progress events; nil disables them. The
	// callback observes only: it runs on the pipeline goroutine and cannot
	// alter pipeline state.
	OnProgress func(Progress)
}

// Extractor drives the transcript → insights pipeline against one generator.
type Extractor struct {
	gen  textgen.Generator
	opts Options
}

// NewExtractor builds an Extractor, filling defaulted options.
func NewExtractor(gen textgen.Generator, opts Options) (*Extractor, error) {
	if gen == nil {
		return nil, errors.New("NewExtractor: gen is nil")
	}
	if opts.NoteModel == "" {
		opts.NoteModel = DefaultNoteModel
	}
	if opts.SummaryModel == "" {
		opts.SummaryModel = DefaultSummaryModel
	}
	if opts.Chunking == (ChunkConfig{}) {
		opts.Chunking = DefaultChunkConfig()
	}
	return &Extractor{gen: gen, opts: opts}, nil
}

// ProcessTranscript runs the full pipeline over raw transcript segments:
// validate, format, chunk, sequential note-taking, entity extraction, then
// the executive summary. Everything executes on the calling goroutine, one
// remote call at a time; ctx flows through to the generator, which owns
// timeouts.
//
// A validation or generation failure aborts the run with no artifact. The
// one absorbed failure is a malformed extraction response: the run continues
// with Entities empty and the response preserved in EntitiesRaw.
func (e *Extractor) ProcessTranscript(ctx context.Context, segments []Segment) (*VideoInsights, error) {
	if ctx == nil {
		return nil, errors.New("ProcessTranscript: ctx is nil")
	}
	if len(segments) == 0 {
		return nil, &ValidationError{Index: -1, Msg: "no segments"}
	}
	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}

	chunks := ChunkTranscript(FormatSegments(segments), e.opts.Chunking)

	chunkNotes, err := e.takeNotes(ctx, chunks)
	if err != nil {
		return nil, err
	}
	running := MergeNotes(chunkNotes)

	insights := &VideoInsights{RunningNotes: running}

	records, raw, err := e.extractTools(ctx, running)
	insights.EntitiesRaw = raw
	if err != nil {
		var formatErr *ExtractionFormatError
		if !errors.As(err, &formatErr) {
			return nil, err
		}
		// Malformed payload: EntitiesRaw keeps the response, Entities stays
		// empty, and the run continues.
	} else {
		insights.Entities = records
	}

	summary, err := e.summarize(ctx, running)
	if err != nil {
		return nil, err
	}
	insights.FinalSummary = summary

	return insights, nil
}

// summarize runs the final stage: one call over the full running notes with
// the summary model.
func (e *Extractor) summarize(ctx context.Context, notes string) (string, error) {
	req := textgen.Request{
		Prompt:          buildSummaryPrompt(notes),
		Model:           e.opts.SummaryModel,
		MaxOutputTokens: e.opts.MaxSummaryTokens,
		Routing:         e.opts.Routing,
	}
	return e.generate(ctx, StageSummary, 0, 0, req)
}

// generate is the single choke point for capability calls: every stage goes
// through it, so progress reporting and failure context live in one place.
// No retries happen here or anywhere above: the first failure aborts.
func (e *Extractor) generate(ctx context.Context, stage string, chunk, total int, req textgen.Request) (string, error) {
	e.progress(stage, chunk, total)
	out, err := e.gen.Generate(ctx, req)
	if err != nil {
		return "", &GenerationError{Stage: stage, Model: req.Model, Chunk: chunk, Err: err}
	}
	return out, nil
}

func (e *Extractor) progress(stage string, chunk, total int) {
	if e.opts.OnProgress != nil {
		e.opts.OnProgress(Progress{Stage: stage, Chunk: chunk, Total: total})
	}
}
