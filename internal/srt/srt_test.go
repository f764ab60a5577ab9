package srt

import (
	"errors"
	"math"
	"strings"
	"testing"

	"vidsub/internal/transcript"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00:00,000"},
		{0.5, "00:00:00,500"},
		{1.001, "00:00:01,001"},
		{59.9999, "00:00:59,999"},
		{3599.9999, "00:59:59,999"},
		{3725.4001, "01:02:05,400"},
		{90061.999, "25:01:01,999"},
		{360000, "100:00:00,000"},
		{-3, "00:00:00,000"},
		{math.NaN(), "00:00:00,000"},
		{math.Inf(1), "00:00:00,000"},
	}
	for _, tt := range tests {
		got := FormatTimestamp(tt.seconds)
		if got != tt.expected {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestFormatTimestampTruncatesBelowBoundary(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		// Decimal inputs whose float product falls just short of the millisecond.
		{1.001, "00:00:01,001"},
		{2.014, "00:00:02,014"},
		{8.059, "00:00:08,059"},
		// More than a nanosecond short truncates.
		{0.9995, "00:00:00,999"},
		{0.99999, "00:00:00,999"},
		{0.999999, "00:00:00,999"},
		{0.0019999, "00:00:00,001"},
		// Within a nanosecond of the boundary counts as the boundary.
		{0.9999999995, "00:00:01,000"},
	}
	for _, tt := range tests {
		if got := FormatTimestamp(tt.seconds); got != tt.expected {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.expected)
		}
	}
}

func TestFormatTimestampNeverEmitsSixtySeconds(t *testing.T) {
	for i := 0; i < 5000; i++ {
		seconds := float64(i)*0.0137 + 59.99
		if got := FormatTimestamp(seconds); strings.Contains(got, ":60,") {
			t.Fatalf("FormatTimestamp(%v) = %q", seconds, got)
		}
	}
}

func TestSerializeThreeSegments(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0, End: 1.5, Text: "  Hello there. "},
		{Start: 1.5, End: 3.25, Text: "General Kenobi!"},
		{Start: 3725.4001, End: 3727, Text: "\nYou are a bold one.\n"},
	}
	want := "1\n00:00:00,000 --> 00:00:01,500\nHello there.\n\n" +
		"2\n00:00:01,500 --> 00:00:03,250\nGeneral Kenobi!\n\n" +
		"3\n01:02:05,400 --> 01:02:07,000\nYou are a bold one.\n\n"
	if got := Serialize(segments); got != want {
		t.Fatalf("Serialize mismatch\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestSerializeEmpty(t *testing.T) {
	if got := Serialize(nil); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestSerializeIsDeterministic(t *testing.T) {
	segments := []transcript.Segment{{Start: 0.1, End: 0.2, Text: "a"}, {Start: 0.3, End: 0.4, Text: "b"}}
	if Serialize(segments) != Serialize(segments) {
		t.Fatal("expected identical output for identical input")
	}
}

func TestBuildValidate(t *testing.T) {
	doc := Build([]transcript.Segment{{Start: 0, End: 1, Text: "ok"}, {Start: 1, End: 2, Text: "ok"}})
	if err := doc.Validate(); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}

	doc.Cues[1].Index = 5
	doc.Cues[0].End = 0
	err := doc.Validate()
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	for _, fragment := range []string{"index 5, want 2", "not after start"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %v", fragment, err)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	segments := []transcript.Segment{
		{Start: 0.0004, End: 1.9999, Text: "first"},
		{Start: 2, End: 4.123456, Text: "second line one\nsecond line two"},
		{Start: 90061.999, End: 90063, Text: "late"},
	}
	doc, err := Parse(strings.NewReader(Serialize(segments)))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(doc.Cues) != len(segments) {
		t.Fatalf("expected %d cues, got %d", len(segments), len(doc.Cues))
	}
	for i, cue := range doc.Cues {
		if cue.Index != i+1 {
			t.Errorf("cue %d: index %d", i, cue.Index)
		}
		if FormatTimestamp(cue.Start) != FormatTimestamp(segments[i].Start) || FormatTimestamp(cue.End) != FormatTimestamp(segments[i].End) {
			t.Errorf("cue %d: timing %v-%v does not match %v-%v", i, cue.Start, cue.End, segments[i].Start, segments[i].End)
		}
		if cue.Text != segments[i].Text {
			t.Errorf("cue %d: text %q, want %q", i, cue.Text, segments[i].Text)
		}
	}
}

func TestParseToleratesCRLFAndBOM(t *testing.T) {
	input := "\ufeff1\r\n00:00:01,000 --> 00:00:02.500\r\nHi\r\n\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nBye"
	doc, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.Cues[0].End != 2.5 || doc.Cues[1].Text != "Bye" {
		t.Fatalf("unexpected cues %+v", doc.Cues)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for name, input := range map[string]string{
		"bad index":     "one\n00:00:01,000 --> 00:00:02,000\nHi\n\n",
		"bad timing":    "1\nsoon\nHi\n\n",
		"bad timestamp": "1\n00:00:61,000 --> 00:00:62,000\nHi\n\n",
		"missing time":  "1\n",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(input)); !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}
