// Package transcript defines the timed-text model shared by the recognizer,
// the translation layer, and the SRT serializer.
package transcript

import "strings"

// Segment is one recognized utterance. Times are seconds from the start of
// the media.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is the recognizer output for one media file. Segments are in
// chronological order.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Clone returns a deep copy so transforms never alias the original segments.
func (t Transcript) Clone() Transcript {
	out := Transcript{Language: t.Language}
	if t.Segments != nil {
		out.Segments = make([]Segment, len(t.Segments))
		copy(out.Segments, t.Segments)
	}
	return out
}

// Empty reports whether the transcript carries no spoken text.
func (t Transcript) Empty() bool {
	for _, seg := range t.Segments {
		if strings.TrimSpace(seg.Text) != "" {
			return false
		}
	}
	return true
}

// Texts returns the segment texts in order.
func (t Transcript) Texts() []string {
	texts := make([]string, len(t.Segments))
	for i, seg := range t.Segments {
		texts[i] = seg.Text
	}
	return texts
}
