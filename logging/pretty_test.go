package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandlerFormatsRecord(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, PrettyHandlerOptions{})

	rec := slog.NewRecord(time.Date(2024, 5, 6, 15, 4, 5, 0, time.UTC), slog.LevelInfo, "processing transcript", 0)
	rec.AddAttrs(slog.String("video_id", "abc123"), slog.Int("chunks", 3))

	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"[15:04:05.000]", "INFO:", "processing transcript", `"video_id":"abc123"`, `"chunks":3`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestPrettyHandlerNoAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, PrettyHandlerOptions{})

	rec := slog.NewRecord(time.Now(), slog.LevelWarn, "empty transcript", 0)
	if err := h.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "WARN:") {
		t.Errorf("output %q missing level", out)
	}
	if !strings.Contains(out, "{}") {
		t.Errorf("output %q missing empty attr object", out)
	}
}

func TestPrettyHandlerLevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelInfo},
	})

	logger := slog.New(h)
	logger.Debug("should be suppressed")
	if buf.Len() != 0 {
		t.Fatalf("debug record written despite info level: %q", buf.String())
	}

	logger.Info("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("info record missing: %q", buf.String())
	}
}
