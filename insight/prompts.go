package insight

import (
	"fmt"
	"strings"
)

// maxPriorNotesChars caps how much accumulated context re-enters a
// note-taking prompt. Only the prompt is capped: the stored running notes
// are never truncated. The tail is kept because recent notes matter most for
// continuity.
const maxPriorNotesChars = 24000

const noteFocus = `Focus on:
1. Key points and topics discussed
2. Any AI tools mentioned and their context
3. Important quotes or examples

Each transcript line starts with its [MM:SS] timestamp. Attach a
[MM:SS-MM:SS] range to every note so later analysis can cite the source
moment.

Format as a running list of notes.`

const toolsAnalysisIntro = `Analyze these notes from a video and extract information about all AI tools mentioned:`

const toolsAnalysisBody = `Provide a detailed analysis of each AI tool mentioned, including:
- How the tool was used or discussed
- Where it was discussed, as [MM:SS-MM:SS] timestamp ranges taken from the notes
- The sentiment around the tool (positive/negative/mixed)
- Notable features, limitations, or use cases mentioned
- Any specific examples or demonstrations
- Integration points with other tools
- Pricing information if mentioned

Format your response as JSON:
{
    "ai_tools": [
        {
            "name": "tool name",
            "description": "brief description of the tool",
            "timestamp_ranges": ["MM:SS-MM:SS"],
            "usage_context": "how it was used or discussed",
            "sentiment": "positive/negative/mixed",
            "features": ["feature 1", "feature 2"],
            "limitations": ["limitation 1", "limitation 2"],
            "use_cases": ["use case 1", "use case 2"],
            "integrations": ["integration 1", "integration 2"],
            "pricing": "pricing information if mentioned or null",
            "examples": ["example 1", "example 2"]
        }
    ]
}`

const summaryIntro = `Create a high-level executive summary of this video based on these notes:`

const summaryBody = `Focus on:
1. The main purpose and key message of the video
2. The most significant insights or takeaways
3. Who would benefit most from this content
4. Any overarching themes or patterns

Keep the summary concise but comprehensive, focusing on the big picture rather than specific details.`

// buildNotesPrompt assembles the note-taking request for one chunk. When
// prior notes exist the prompt threads them in so the model continues the
// same running list instead of starting over.
func buildNotesPrompt(chunkText, priorNotes string) string {
	var b strings.Builder
	if priorNotes != "" {
		fmt.Fprintf(&b, "Previous notes:\n%s\n\n", tailChars(priorNotes, maxPriorNotesChars))
		fmt.Fprintf(&b, "Continue taking notes on this new section:\n%s\n\n", chunkText)
	} else {
		fmt.Fprintf(&b, "Take detailed notes on this transcript section:\n%s\n\n", chunkText)
	}
	b.WriteString(noteFocus)
	return b.String()
}

func buildToolsPrompt(notes string) string {
	var b strings.Builder
	b.WriteString(toolsAnalysisIntro)
	fmt.Fprintf(&b, "\n\n%s\n\n", notes)
	b.WriteString(toolsAnalysisBody)
	return b.String()
}

func buildSummaryPrompt(notes string) string {
	var b strings.Builder
	b.WriteString(summaryIntro)
	fmt.Fprintf(&b, "\n\n%s\n\n", notes)
	b.WriteString(summaryBody)
	return b.String()
}

// tailChars keeps the last max characters of s, cutting at a rune boundary.
func tailChars(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := len(s) - max
	for cut < len(s) && !isRuneStart(s[cut]) {
		cut++
	}
	return "…" + s[cut:]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
