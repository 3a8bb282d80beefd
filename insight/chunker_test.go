package insight

import (
	"strings"
	"testing"
)

// uniformSegments builds n formatted segments with identical text, starting
// five seconds apart.
func uniformSegments(n int, text string) []FormattedSegment {
	segs := make([]Segment, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, Segment{Start: float64(i * 5), Text: text})
	}
	return FormatSegments(segs)
}

// checkChunkInvariants verifies the structural guarantees every chunking
// shares: full coverage, at most two chunks per segment, exactly one owning
// chunk per segment, forward progress, and the triggering segment opening
// the next chunk's fresh region.
func checkChunkInvariants(t *testing.T, chunks []Chunk, total int) {
	t.Helper()

	if len(chunks) == 0 {
		t.Fatalf("no chunks for %d segments", total)
	}
	if chunks[0].SegmentStart != 0 || chunks[0].OverlapCount != 0 {
		t.Fatalf("chunk 1 start=%d overlap=%d, want 0/0", chunks[0].SegmentStart, chunks[0].OverlapCount)
	}
	if chunks[len(chunks)-1].SegmentEnd != total {
		t.Fatalf("last chunk ends at %d, want %d", chunks[len(chunks)-1].SegmentEnd, total)
	}

	membership := make([]int, total)
	owned := make([]int, total)
	for i, c := range chunks {
		if c.Number != i+1 {
			t.Fatalf("chunk %d has Number=%d", i, c.Number)
		}
		if len(c.Segments) != c.SegmentEnd-c.SegmentStart {
			t.Fatalf("chunk %d holds %d segments for range %d..%d", c.Number, len(c.Segments), c.SegmentStart, c.SegmentEnd)
		}
		fresh := c.SegmentStart + c.OverlapCount
		if fresh >= c.SegmentEnd {
			t.Fatalf("chunk %d has no fresh segments", c.Number)
		}
		if i > 0 && fresh != chunks[i-1].SegmentEnd {
			t.Fatalf("chunk %d fresh region starts at %d, want previous end %d", c.Number, fresh, chunks[i-1].SegmentEnd)
		}
		for j, seg := range c.Segments {
			idx := c.SegmentStart + j
			if seg.Index != idx {
				t.Fatalf("chunk %d segment %d has Index=%d, want %d", c.Number, j, seg.Index, idx)
			}
			membership[idx]++
			if idx >= fresh {
				owned[idx]++
			}
		}
	}
	for idx := range membership {
		if membership[idx] < 1 || membership[idx] > 2 {
			t.Fatalf("segment %d appears in %d chunks", idx, membership[idx])
		}
		if owned[idx] != 1 {
			t.Fatalf("segment %d owned by %d fresh regions, want 1", idx, owned[idx])
		}
	}
}

func TestChunkTranscript_Empty(t *testing.T) {
	t.Parallel()

	if chunks := ChunkTranscript(nil, DefaultChunkConfig()); chunks != nil {
		t.Fatalf("chunks=%v, want nil", chunks)
	}
}

func TestChunkTranscript_FitsInOneChunk(t *testing.T) {
	t.Parallel()

	segments := uniformSegments(8, "short line of text")
	chunks := ChunkTranscript(segments, DefaultChunkConfig())
	if len(chunks) != 1 {
		t.Fatalf("len(chunks)=%d, want 1", len(chunks))
	}
	checkChunkInvariants(t, chunks, len(segments))
	if chunks[0].EstTokens <= 0 {
		t.Fatalf("EstTokens=%v", chunks[0].EstTokens)
	}
}

func TestChunkTranscript_SmallBudgetWithOverlap(t *testing.T) {
	t.Parallel()

	segments := uniformSegments(130, "word word word word word")
	cfg := ChunkConfig{BudgetTokens: 100, PromptOverhead: 0, OverlapWindow: 10, OverlapUnit: OverlapSegments}
	chunks := ChunkTranscript(segments, cfg)

	if len(chunks) < 2 {
		t.Fatalf("len(chunks)=%d, want at least 2", len(chunks))
	}
	checkChunkInvariants(t, chunks, len(segments))

	// Constant per-segment cost, so seeded overlap plus the triggering
	// segment always fits back under the budget.
	for _, c := range chunks {
		sum := 0.0
		for _, seg := range c.Segments {
			sum += EstimateTokens(seg.Text)
		}
		if sum > cfg.BudgetTokens {
			t.Fatalf("chunk %d estimates %v tokens, budget %v", c.Number, sum, cfg.BudgetTokens)
		}
	}

	// A segment at a chunk boundary shows up in exactly the two adjacent
	// chunks.
	boundary := chunks[1].SegmentStart
	seen := 0
	for _, c := range chunks {
		if boundary >= c.SegmentStart && boundary < c.SegmentEnd {
			seen++
		}
	}
	if seen != 2 {
		t.Fatalf("segment %d appears in %d chunks, want 2", boundary, seen)
	}
	if chunks[1].OverlapCount == 0 {
		t.Fatalf("chunk 2 carries no overlap")
	}
}

func TestChunkTranscript_PromptOverheadShrinksChunks(t *testing.T) {
	t.Parallel()

	segments := uniformSegments(40, "word word word word word")
	loose := ChunkTranscript(segments, ChunkConfig{BudgetTokens: 100, OverlapWindow: 0})
	tight := ChunkTranscript(segments, ChunkConfig{BudgetTokens: 100, PromptOverhead: 60, OverlapWindow: 0})
	if len(tight) <= len(loose) {
		t.Fatalf("overhead did not shrink chunks: loose=%d tight=%d", len(loose), len(tight))
	}
	checkChunkInvariants(t, tight, len(segments))
}

func TestChunkTranscript_NoOverlapWindow(t *testing.T) {
	t.Parallel()

	segments := uniformSegments(30, "word word word word word")
	chunks := ChunkTranscript(segments, ChunkConfig{BudgetTokens: 50, OverlapWindow: 0})
	if len(chunks) < 2 {
		t.Fatalf("len(chunks)=%d, want at least 2", len(chunks))
	}
	checkChunkInvariants(t, chunks, len(segments))
	for i, c := range chunks {
		if c.OverlapCount != 0 {
			t.Fatalf("chunk %d OverlapCount=%d, want 0", c.Number, c.OverlapCount)
		}
		if i > 0 && c.SegmentStart != chunks[i-1].SegmentEnd {
			t.Fatalf("chunk %d starts at %d, want %d", c.Number, c.SegmentStart, chunks[i-1].SegmentEnd)
		}
	}
}

func TestChunkTranscript_OversizeSegmentAlone(t *testing.T) {
	t.Parallel()

	huge := strings.Repeat("word ", 200)
	segments := FormatSegments([]Segment{
		{Start: 0, Text: "a b"},
		{Start: 5, Text: huge},
		{Start: 10, Text: "c d"},
	})
	chunks := ChunkTranscript(segments, ChunkConfig{BudgetTokens: 20, OverlapWindow: 0})
	if len(chunks) != 3 {
		t.Fatalf("len(chunks)=%d, want 3", len(chunks))
	}
	checkChunkInvariants(t, chunks, len(segments))
	if chunks[1].SegmentStart != 1 || chunks[1].SegmentEnd != 2 {
		t.Fatalf("oversize segment not isolated: %d..%d", chunks[1].SegmentStart, chunks[1].SegmentEnd)
	}
	if chunks[1].EstTokens <= 20 {
		t.Fatalf("oversize chunk estimates %v tokens", chunks[1].EstTokens)
	}
}

func TestChunkTranscript_OverlapLargerThanBudget(t *testing.T) {
	t.Parallel()

	segments := uniformSegments(24, "word word word word word")
	chunks := ChunkTranscript(segments, ChunkConfig{BudgetTokens: 18, OverlapWindow: 100})
	if len(chunks) < 2 {
		t.Fatalf("len(chunks)=%d, want at least 2", len(chunks))
	}
	// The floor clamp keeps the window from re-sending whole chunks, so
	// progress holds even with an absurd overlap setting.
	checkChunkInvariants(t, chunks, len(segments))
}

func TestChunkTranscript_TokenOverlapUnit(t *testing.T) {
	t.Parallel()

	segments := uniformSegments(20, "word word word word word")
	perSegment := EstimateTokens(segments[0].Text)
	cfg := ChunkConfig{
		BudgetTokens:  perSegment * 5,
		OverlapWindow: int(perSegment*2) + 1,
		OverlapUnit:   OverlapTokens,
	}
	chunks := ChunkTranscript(segments, cfg)
	if len(chunks) < 2 {
		t.Fatalf("len(chunks)=%d, want at least 2", len(chunks))
	}
	checkChunkInvariants(t, chunks, len(segments))

	if chunks[1].OverlapCount != 2 {
		t.Fatalf("chunk 2 OverlapCount=%d, want 2", chunks[1].OverlapCount)
	}
	seeded := 0.0
	for i := 0; i < chunks[1].OverlapCount; i++ {
		seeded += EstimateTokens(chunks[1].Segments[i].Text)
	}
	if seeded > float64(cfg.OverlapWindow) {
		t.Fatalf("seeded overlap %v exceeds window %d", seeded, cfg.OverlapWindow)
	}
}

func TestChunkText_JoinsLines(t *testing.T) {
	t.Parallel()

	c := Chunk{Segments: []FormattedSegment{
		{Text: "[00:00] a"},
		{Text: "[00:05] b"},
	}}
	if got, want := c.Text(), "[00:00] a\n[00:05] b"; got != want {
		t.Fatalf("Text()=%q, want %q", got, want)
	}
	if (Chunk{}).Text() != "" {
		t.Fatalf("empty chunk text should be empty")
	}
}
