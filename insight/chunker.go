package insight

import "strings"

// OverlapUnit selects how ChunkConfig.OverlapWindow is counted.
type OverlapUnit int

const (
	// OverlapSegments counts the overlap window in whole segments. This is
	// the default: it is deterministic for a given segment count regardless
	// of how wordy individual segments are.
	OverlapSegments OverlapUnit = iota

	// OverlapTokens counts the overlap window in estimated tokens, walking
	// back from the chunk boundary until the window is spent.
	OverlapTokens
)

// ChunkConfig bounds chunk size and boundary overlap.
type ChunkConfig struct {
	// BudgetTokens is the estimated-token budget for one chunk's request,
	// including prompt scaffolding.
	BudgetTokens float64

	// PromptOverhead is reserved out of BudgetTokens for prompt scaffolding;
	// segments accumulate against the remainder.
	PromptOverhead float64

	// OverlapWindow is how much closing context re-enters the next chunk at
	// a boundary, counted per OverlapUnit.
	OverlapWindow int

	// OverlapUnit selects segments (default) or estimated tokens.
	OverlapUnit OverlapUnit
}

// DefaultChunkConfig returns the chunking parameters used by the pipeline
// unless a caller overrides them.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		BudgetTokens:   16000,
		PromptOverhead: 1000,
		OverlapWindow:  10,
		OverlapUnit:    OverlapSegments,
	}
}

// Chunk is one prompt-sized window of formatted segments. Chunks exist only
// on the way into the note-taking stage; they are never persisted.
type Chunk struct {
	// Number is the 1-based position in the chunk sequence.
	Number int

	// SegmentStart / SegmentEnd bound the chunk's segment indices,
	// overlap included; SegmentEnd is exclusive.
	SegmentStart int
	SegmentEnd   int

	// OverlapCount is how many leading segments are repeated from the
	// previous chunk. The chunk's own (non-overlap) region starts at
	// SegmentStart+OverlapCount.
	OverlapCount int

	// EstTokens is the estimated token cost of the chunk's text.
	EstTokens float64

	Segments []FormattedSegment
}

// Text joins the chunk's formatted lines for prompting.
func (c Chunk) Text() string {
	var b strings.Builder
	for i, seg := range c.Segments {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// ChunkTranscript splits formatted segments into budget-bounded chunks with
// controlled overlap across boundaries.
//
// Segments accumulate in order against BudgetTokens minus PromptOverhead.
// When the next segment would overflow, the open chunk closes and the next
// one is seeded with an overlap slice reaching back at most OverlapWindow
// from the boundary, clamped to start strictly after the closing chunk's own
// region begins. The clamp guarantees forward progress (each chunk's fresh
// region starts strictly later than the previous one's) and bounds any
// segment to at most two adjacent chunks, even when OverlapWindow exceeds
// the budget.
//
// A single segment whose estimated cost alone overflows the budget still
// lands in a chunk of its own: segments are never dropped or split. Empty
// input yields nil. Pure function; validation of raw segments happens before
// formatting, not here.
func ChunkTranscript(segments []FormattedSegment, cfg ChunkConfig) []Chunk {
	if len(segments) == 0 {
		return nil
	}

	available := cfg.BudgetTokens - cfg.PromptOverhead
	if available < 0 {
		available = 0
	}

	var chunks []Chunk
	cur := Chunk{SegmentStart: 0}
	curTokens := 0.0
	freshStart := 0 // index where cur's non-overlap region begins

	for i, seg := range segments {
		cost := EstimateTokens(seg.Text)
		if len(cur.Segments) > 0 && curTokens+cost > available {
			cur.SegmentEnd = i
			cur.EstTokens = curTokens
			chunks = append(chunks, cur)

			start := overlapStart(segments, i, freshStart+1, cfg)
			next := Chunk{SegmentStart: start, OverlapCount: i - start}
			seeded := 0.0
			for j := start; j < i; j++ {
				next.Segments = append(next.Segments, segments[j])
				seeded += EstimateTokens(segments[j].Text)
			}
			freshStart = i
			cur = next
			curTokens = seeded
		}
		cur.Segments = append(cur.Segments, seg)
		curTokens += cost
	}

	cur.SegmentEnd = len(segments)
	cur.EstTokens = curTokens
	chunks = append(chunks, cur)

	for i := range chunks {
		chunks[i].Number = i + 1
	}
	return chunks
}

// overlapStart picks the index where the next chunk's overlap slice begins.
// floor is one past the closing chunk's fresh start; keeping the slice at or
// above it is what bounds segments to two chunks and forces progress.
func overlapStart(segments []FormattedSegment, boundary, floor int, cfg ChunkConfig) int {
	if floor > boundary {
		floor = boundary
	}
	if cfg.OverlapWindow <= 0 {
		return boundary
	}

	if cfg.OverlapUnit == OverlapTokens {
		start := boundary
		left := float64(cfg.OverlapWindow)
		for start > floor {
			cost := EstimateTokens(segments[start-1].Text)
			if cost > left {
				break
			}
			left -= cost
			start--
		}
		return start
	}

	start := boundary - cfg.OverlapWindow
	if start < floor {
		start = floor
	}
	return start
}
