package insight

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Segment is one timestamped unit of transcript text, as produced by a
// transcript source. Segments arrive ordered by Start ascending; they are not
// required to be contiguous or non-overlapping.
type Segment struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration,omitempty"`
	Text     string  `json:"text"`
}

// FormattedSegment is a Segment rendered for prompting: Text carries the
// "[MM:SS] <text>" line and Index points back at the source segment. Exactly
// one FormattedSegment exists per source Segment, in source order.
type FormattedSegment struct {
	Index int
	Start float64
	Text  string
}

// FormatTimestamp renders whole seconds as zero-padded "MM:SS". Minutes are
// not wrapped at the hour; 3725 seconds renders as "62:05".
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// FormatSegments derives the prompt lines for a transcript. Pure in its
// input: formatting the same segments twice yields identical output, and
// order is preserved one-to-one.
func FormatSegments(segments []Segment) []FormattedSegment {
	out := make([]FormattedSegment, 0, len(segments))
	for i, seg := range segments {
		out = append(out, FormattedSegment{
			Index: i,
			Start: seg.Start,
			Text:  fmt.Sprintf("[%s] %s", FormatTimestamp(seg.Start), seg.Text),
		})
	}
	return out
}

// ValidateSegments checks the caller contract on raw segments: non-empty
// text, non-negative start, starts non-decreasing. A violation is returned
// as a *ValidationError before any remote work happens.
func ValidateSegments(segments []Segment) error {
	prev := -1.0
	for i, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			return &ValidationError{Index: i, Msg: "missing text"}
		}
		if seg.Start < 0 {
			return &ValidationError{Index: i, Msg: fmt.Sprintf("negative start %v", seg.Start)}
		}
		if seg.Start < prev {
			return &ValidationError{Index: i, Msg: fmt.Sprintf("start %v precedes previous segment's %v", seg.Start, prev)}
		}
		prev = seg.Start
	}
	return nil
}

// rawSegment distinguishes absent keys from zero values during decode.
type rawSegment struct {
	Start    *float64 `json:"start"`
	Duration *float64 `json:"duration"`
	Text     *string  `json:"text"`
}

// ParseTranscript reads transcript JSON from r. The input is either a
// top-level array of segments or an object whose "transcript" or "segments"
// field holds that array (the shapes transcript dump tools produce). Decoding
// is streaming; segments are validated as they arrive and a malformed one is
// reported as a *ValidationError with its index.
func ParseTranscript(r io.Reader) ([]Segment, error) {
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("ParseTranscript: read first token: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, fmt.Errorf("ParseTranscript: expected JSON array/object, got %T", tok)
	}

	switch delim {
	case '[':
		segs, err := parseSegmentArray(dec)
		if err != nil {
			return nil, err
		}
		if err := consumeDelim(dec, ']'); err != nil {
			return nil, fmt.Errorf("ParseTranscript: %w", err)
		}
		return segs, nil
	case '{':
		var segs []Segment
		found := false
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("ParseTranscript: read object key: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("ParseTranscript: expected string key, got %T", keyTok)
			}
			if !found && (key == "transcript" || key == "segments") {
				valTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("ParseTranscript: read value for key %q: %w", key, err)
				}
				if d, ok := valTok.(json.Delim); !ok || d != '[' {
					return nil, fmt.Errorf("ParseTranscript: key %q is not an array", key)
				}
				segs, err = parseSegmentArray(dec)
				if err != nil {
					return nil, err
				}
				if err := consumeDelim(dec, ']'); err != nil {
					return nil, fmt.Errorf("ParseTranscript: %w", err)
				}
				found = true
				continue
			}
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("ParseTranscript: skip key %q: %w", key, err)
			}
		}
		if err := consumeDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("ParseTranscript: %w", err)
		}
		if !found {
			return nil, &ValidationError{Index: -1, Msg: "no transcript array found in top-level object"}
		}
		return segs, nil
	default:
		return nil, fmt.Errorf("ParseTranscript: unsupported top-level delimiter %q", delim)
	}
}

func parseSegmentArray(dec *json.Decoder) ([]Segment, error) {
	var segs []Segment
	prev := -1.0
	for dec.More() {
		i := len(segs)
		var raw rawSegment
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("ParseTranscript: decode segment %d: %w", i, err)
		}
		if raw.Text == nil || strings.TrimSpace(*raw.Text) == "" {
			return nil, &ValidationError{Index: i, Msg: "missing text"}
		}
		if raw.Start == nil {
			return nil, &ValidationError{Index: i, Msg: "missing start"}
		}
		if *raw.Start < 0 {
			return nil, &ValidationError{Index: i, Msg: fmt.Sprintf("negative start %v", *raw.Start)}
		}
		if *raw.Start < prev {
			return nil, &ValidationError{Index: i, Msg: fmt.Sprintf("start %v precedes previous segment's %v", *raw.Start, prev)}
		}
		prev = *raw.Start

		seg := Segment{Start: *raw.Start, Text: *raw.Text}
		if raw.Duration != nil {
			seg.Duration = *raw.Duration
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func consumeDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read closing token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected closing %q, got %v", want, tok)
	}
	return nil
}

// LoadTranscript reads and parses a transcript JSON file.
func LoadTranscript(path string) ([]Segment, error) {
	if path == "" {
		return nil, fmt.Errorf("LoadTranscript: path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadTranscript: open: %w", err)
	}
	defer f.Close()
	segs, err := ParseTranscript(f)
	if err != nil {
		return nil, err
	}
	return segs, nil
}
