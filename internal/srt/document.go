package srt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vidsub/internal/transcript"
)

// ErrInvalidDocument marks structural problems reported by Validate and Parse.
var ErrInvalidDocument = errors.New("invalid subtitle document")

// Cue is a single numbered subtitle entry.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Document is an ordered list of cues.
type Document struct {
	Cues []Cue
}

// Build numbers segments from 1 and trims their text. Timing is copied as-is.
func Build(segments []transcript.Segment) Document {
	cues := make([]Cue, len(segments))
	for i, seg := range segments {
		cues[i] = Cue{
			Index: i + 1,
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
	}
	return Document{Cues: cues}
}

// Serialize renders segments as SRT text. Every cue, including the last, is
// followed by a blank line.
func Serialize(segments []transcript.Segment) string {
	return Build(segments).String()
}

// String renders the document as SRT text.
func (d Document) String() string {
	var b strings.Builder
	for _, cue := range d.Cues {
		b.WriteString(strconv.Itoa(cue.Index))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(cue.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(cue.End))
		b.WriteByte('\n')
		b.WriteString(cue.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Segments converts the cues back into transcript segments.
func (d Document) Segments() []transcript.Segment {
	segments := make([]transcript.Segment, len(d.Cues))
	for i, cue := range d.Cues {
		segments[i] = transcript.Segment{Start: cue.Start, End: cue.End, Text: cue.Text}
	}
	return segments
}

// Validate reports index gaps, negative starts, and cues whose end does not
// follow their start. All issues are joined into one error wrapping
// ErrInvalidDocument.
func (d Document) Validate() error {
	var issues []error
	for i, cue := range d.Cues {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Errorf("cue %d: index %d, want %d", i+1, cue.Index, i+1))
		}
		if cue.Start < 0 {
			issues = append(issues, fmt.Errorf("cue %d: negative start %.3f", cue.Index, cue.Start))
		}
		if cue.End <= cue.Start {
			issues = append(issues, fmt.Errorf("cue %d: end %s not after start %s", cue.Index, FormatTimestamp(cue.End), FormatTimestamp(cue.Start)))
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidDocument, errors.Join(issues...))
}
