package insight

import (
	"strings"
	"testing"
	"time"
)

func TestParseRangeStart(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"01:05-02:10", 65, true},
		{"[01:05-02:10]", 65, true},
		{" 00:00-00:30 ", 0, true},
		{"12:00", 720, true},
		{"62:05-63:00", 3725, true},
		{"", 0, false},
		{"garbage", 0, false},
		{"1:2:3-4:5:6", 0, false},
		{"-01:00", 0, false},
		{"aa:05-02:10", 0, false},
		{"01:bb-02:10", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseRangeStart(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseRangeStart(%q)=(%d,%v), want (%d,%v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDeepLinkURL(t *testing.T) {
	t.Parallel()

	got := DeepLinkURL("dQw4w9WgXcQ", 65)
	want := "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=65s"
	if got != want {
		t.Fatalf("DeepLinkURL=%q, want %q", got, want)
	}
}

func TestAssembleReport_LinksAndSkips(t *testing.T) {
	t.Parallel()

	insights := VideoInsights{
		RunningNotes: "- notes here",
		FinalSummary: "the summary",
		EntitiesRaw:  `{"ai_tools": []}`,
		Entities: []EntityRecord{
			{
				Name:            "Cursor",
				Description:     "editor",
				TimestampRanges: []string{"01:05-02:10", "not a range", "12:00-13:00"},
			},
		},
	}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	report := AssembleReport(insights, "vid42", now)
	if report.ID == "" {
		t.Fatalf("report ID not set")
	}
	if report.VideoID != "vid42" || !report.GeneratedAt.Equal(now) {
		t.Fatalf("report=%+v", report)
	}
	if report.Summary != "the summary" || report.Notes != "- notes here" {
		t.Fatalf("report=%+v", report)
	}
	if report.EntitiesRaw != insights.EntitiesRaw {
		t.Fatalf("EntitiesRaw=%q", report.EntitiesRaw)
	}

	if len(report.Entities) != 1 {
		t.Fatalf("entities=%d, want 1", len(report.Entities))
	}
	ent := report.Entities[0]
	if len(ent.TimestampRanges) != 3 {
		t.Fatalf("record ranges were modified: %v", ent.TimestampRanges)
	}
	if len(ent.Links) != 2 {
		t.Fatalf("links=%d, want 2 (bad range skipped)", len(ent.Links))
	}
	if ent.Links[0].Seconds != 65 || ent.Links[0].URL != DeepLinkURL("vid42", 65) {
		t.Fatalf("link0=%+v", ent.Links[0])
	}
	if ent.Links[1].Seconds != 720 {
		t.Fatalf("link1=%+v", ent.Links[1])
	}
}

func TestAssembleReport_UniqueIDs(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := AssembleReport(VideoInsights{}, "v", now)
	b := AssembleReport(VideoInsights{}, "v", now)
	if a.ID == b.ID {
		t.Fatalf("report IDs collide: %q", a.ID)
	}
}

func TestReportMarkdown_Sections(t *testing.T) {
	t.Parallel()

	pricing := "$20/month"
	report := Report{
		ID:          "r1",
		VideoID:     "vid42",
		GeneratedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Summary:     "A tour of coding assistants.",
		Notes:       "- first note\n- second note",
		Entities: []ReportEntity{
			{
				EntityRecord: EntityRecord{
					Name:        "Cursor",
					Description: "an AI code editor",
					Sentiment:   "positive",
					Features:    []string{"chat", "chat", "completion"},
					Pricing:     &pricing,
				},
				Links: []EntityLink{{Range: "01:05-02:10", Seconds: 65, URL: DeepLinkURL("vid42", 65)}},
			},
		},
	}

	md := report.Markdown()
	for _, want := range []string{
		"# Video Analysis Report",
		"- video_id: `vid42`",
		"## Executive Summary",
		"A tour of coding assistants.",
		"## AI Tools Mentioned",
		"### Cursor",
		"- sentiment: positive",
		"- pricing: $20/month",
		"**moments**: [01:05-02:10](https://www.youtube.com/watch?v=vid42&t=65s)",
		"**features**: chat, completion",
		"## Detailed Notes",
		"- second note",
		"---",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestReportMarkdown_RawFallback(t *testing.T) {
	t.Parallel()

	report := Report{
		ID:          "r1",
		VideoID:     "v",
		GeneratedAt: time.Now(),
		EntitiesRaw: "not json at all",
	}
	md := report.Markdown()
	if !strings.Contains(md, "could not be parsed") {
		t.Fatalf("markdown missing fallback notice:\n%s", md)
	}
	if !strings.Contains(md, "```json\nnot json at all\n```") {
		t.Fatalf("markdown missing fenced raw payload:\n%s", md)
	}
}

func TestReportMarkdown_NoEntities(t *testing.T) {
	t.Parallel()

	report := Report{ID: "r1", VideoID: "v", GeneratedAt: time.Now()}
	if md := report.Markdown(); !strings.Contains(md, "None detected.") {
		t.Fatalf("markdown missing empty-state line:\n%s", md)
	}
}
