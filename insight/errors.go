package insight

import "fmt"

// Stage labels attached to generation failures and progress events.
const (
	StageNotes    = "notes"
	StageEntities = "entities"
	StageSummary  = "summary"
)

// ValidationError reports malformed transcript input. It is always raised
// before the first remote call, so a run that fails validation has cost
// nothing.
type ValidationError struct {
	Index int // segment index, or -1 when the problem is not tied to one segment
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("transcript: %s", e.Msg)
	}
	return fmt.Sprintf("transcript segment %d: %s", e.Index, e.Msg)
}

// GenerationError wraps a failed text-generation call with the stage and
// model that issued it. Chunk is the 1-based chunk number for chunk-scoped
// stages and 0 otherwise.
type GenerationError struct {
	Stage string
	Model string
	Chunk int
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("generate %s (model %s, chunk %d): %v", e.Stage, e.Model, e.Chunk, e.Err)
	}
	return fmt.Sprintf("generate %s (model %s): %v", e.Stage, e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ExtractionFormatError reports a tools payload that could not be decoded.
// Unlike the other failures it is recoverable: Raw holds the response text
// exactly as received so callers can fall back to presenting it opaquely.
type ExtractionFormatError struct {
	Raw string
	Err error
}

func (e *ExtractionFormatError) Error() string {
	return fmt.Sprintf("decode tools payload: %v", e.Err)
}

func (e *ExtractionFormatError) Unwrap() error { return e.Err }
