package insight

import (
	"context"
	"strings"

	"github.com/staplehorsey/youtube-insights-extractor/insight/textgen"
)

// MergeNotes joins per-chunk notes in chunk order with a blank line between
// them. Deliberately nothing more: no dedup, no timestamp reconciliation.
// Downstream stages depend only on ordering, so merge sophistication must
// never become a correctness requirement.
func MergeNotes(chunkNotes []string) string {
	return strings.Join(chunkNotes, "\n\n")
}

// takeNotes runs the note-taking stage: one generation call per chunk,
// strictly in order, never concurrent. Each prompt threads the notes
// accumulated so far, so sequencing is a correctness requirement here, not
// just a way to bound load on the remote service. A failed call aborts the
// stage with no partial result.
func (e *Extractor) takeNotes(ctx context.Context, chunks []Chunk) ([]string, error) {
	notes := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		req := textgen.Request{
			Prompt:          buildNotesPrompt(chunk.Text(), MergeNotes(notes)),
			Model:           e.opts.NoteModel,
			MaxOutputTokens: e.opts.MaxNoteTokens,
			Routing:         e.opts.Routing,
		}
		out, err := e.generate(ctx, StageNotes, chunk.Number, len(chunks), req)
		if err != nil {
			return nil, err
		}
		notes = append(notes, out)
	}
	return notes, nil
}
