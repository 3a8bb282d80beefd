package insight

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityLink is one deep link derived from a timestamp range.
type EntityLink struct {
	Range   string `json:"range"`
	Seconds int    `json:"seconds"`
	URL     string `json:"url"`
}

// ReportEntity pairs an extracted record with the deep links its timestamp
// ranges produced. Ranges that fail to parse produce no link; the record
// itself is always kept.
type ReportEntity struct {
	EntityRecord
	Links []EntityLink `json:"links,omitempty"`
}

// Report is the assembled, render-ready artifact for one video.
type Report struct {
	ID          string         `json:"id"`
	VideoID     string         `json:"video_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Summary     string         `json:"summary"`
	Entities    []ReportEntity `json:"entities"`
	EntitiesRaw string         `json:"entities_raw"`
	Notes       string         `json:"notes"`
}

// ParseRangeStart converts the start of a "MM:SS-MM:SS" range to absolute
// seconds (minutes*60 + seconds). A bare "MM:SS" counts as its own start;
// surrounding brackets and whitespace are tolerated. Anything else returns
// false and the caller skips the link.
func ParseRangeStart(r string) (int, bool) {
	s := strings.Trim(strings.TrimSpace(r), "[]")
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, false
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || minutes < 0 {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || seconds < 0 {
		return 0, false
	}
	return minutes*60 + seconds, true
}

// DeepLinkURL builds a watch URL positioned at an absolute second.
func DeepLinkURL(videoID string, seconds int) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", videoID, seconds)
}

// AssembleReport combines a finished pipeline run with its video identifier
// into the final artifact. A malformed timestamp range never drops its
// entity: the range is skipped for linking and everything else stays
// intact. Pure transformation apart from the generated report ID.
func AssembleReport(insights VideoInsights, videoID string, now time.Time) Report {
	entities := make([]ReportEntity, 0, len(insights.Entities))
	for _, rec := range insights.Entities {
		ent := ReportEntity{EntityRecord: rec}
		for _, tr := range rec.TimestampRanges {
			secs, ok := ParseRangeStart(tr)
			if !ok {
				continue
			}
			ent.Links = append(ent.Links, EntityLink{
				Range:   strings.TrimSpace(tr),
				Seconds: secs,
				URL:     DeepLinkURL(videoID, secs),
			})
		}
		entities = append(entities, ent)
	}

	return Report{
		ID:          uuid.NewString(),
		VideoID:     videoID,
		GeneratedAt: now,
		Summary:     insights.FinalSummary,
		Entities:    entities,
		EntitiesRaw: insights.EntitiesRaw,
		Notes:       insights.RunningNotes,
	}
}

// Markdown renders the report as a standalone document. When no entities
// parsed but a raw payload exists, the payload is emitted as a fenced block
// so nothing the model produced is lost.
func (r Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Video Analysis Report\n\n")
	fmt.Fprintf(&b, "- report_id: `%s`\n", r.ID)
	fmt.Fprintf(&b, "- video_id: `%s`\n", r.VideoID)
	fmt.Fprintf(&b, "- generated: `%s`\n\n", r.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Executive Summary\n\n")
	if s := strings.TrimSpace(r.Summary); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}

	b.WriteString("## AI Tools Mentioned\n\n")
	switch {
	case len(r.Entities) > 0:
		for _, ent := range r.Entities {
			b.WriteString(renderToolMarkdown(ent))
		}
	case strings.TrimSpace(r.EntitiesRaw) != "":
		b.WriteString("The extraction response could not be parsed; raw payload follows.\n\n")
		fmt.Fprintf(&b, "```json\n%s\n```\n\n", strings.TrimSpace(r.EntitiesRaw))
	default:
		b.WriteString("None detected.\n\n")
	}

	b.WriteString("## Detailed Notes\n\n")
	if n := strings.TrimSpace(r.Notes); n != "" {
		b.WriteString(n)
		b.WriteString("\n")
	}
	return b.String()
}

func renderToolMarkdown(ent ReportEntity) string {
	var b strings.Builder

	name := strings.TrimSpace(ent.Name)
	if name == "" {
		name = "(unnamed tool)"
	}
	fmt.Fprintf(&b, "### %s\n\n", escapeMarkdownInline(name))

	if d := strings.TrimSpace(ent.Description); d != "" {
		b.WriteString(d)
		b.WriteString("\n\n")
	}

	if s := strings.TrimSpace(ent.Sentiment); s != "" {
		fmt.Fprintf(&b, "- sentiment: %s\n", escapeMarkdownInline(s))
	}
	if u := strings.TrimSpace(ent.UsageContext); u != "" {
		fmt.Fprintf(&b, "- usage: %s\n", escapeMarkdownInline(u))
	}
	if ent.Pricing != nil {
		if p := strings.TrimSpace(*ent.Pricing); p != "" {
			fmt.Fprintf(&b, "- pricing: %s\n", escapeMarkdownInline(p))
		}
	}
	b.WriteString("\n")

	if len(ent.Links) > 0 {
		parts := make([]string, 0, len(ent.Links))
		for _, l := range ent.Links {
			parts = append(parts, fmt.Sprintf("[%s](%s)", escapeMarkdownInline(l.Range), l.URL))
		}
		fmt.Fprintf(&b, "**moments**: %s\n\n", strings.Join(parts, ", "))
	}

	writeInlineList(&b, "features", ent.Features)
	writeInlineList(&b, "limitations", ent.Limitations)
	writeInlineList(&b, "use cases", ent.UseCases)
	writeInlineList(&b, "integrations", ent.Integrations)
	writeInlineList(&b, "examples", ent.Examples)

	b.WriteString("---\n\n")
	return b.String()
}

func writeInlineList(b *strings.Builder, label string, items []string) {
	vals := dedupeStrings(items)
	if len(vals) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**: %s\n\n", label, escapeMarkdownInline(strings.Join(vals, ", ")))
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// escapeMarkdownInline flattens text destined for a single markdown line.
func escapeMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
