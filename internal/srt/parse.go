package srt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Parse reads SRT text. CRLF line endings and a UTF-8 BOM are tolerated;
// multi-line cue text is joined with "\n".
func Parse(r io.Reader) (Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		doc     Document
		current *Cue
		text    []string
		lineNo  int
		state   = stateIndex
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(text, "\n")
		doc.Cues = append(doc.Cues, *current)
		current = nil
		text = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		switch state {
		case stateIndex:
			if strings.TrimSpace(line) == "" {
				continue
			}
			index, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				return Document{}, fmt.Errorf("%w: line %d: expected cue index, got %q", ErrInvalidDocument, lineNo, line)
			}
			current = &Cue{Index: index}
			state = stateTiming
		case stateTiming:
			startText, endText, ok := strings.Cut(line, "-->")
			if !ok {
				return Document{}, fmt.Errorf("%w: line %d: expected timing, got %q", ErrInvalidDocument, lineNo, line)
			}
			start, err := ParseTimestamp(startText)
			if err != nil {
				return Document{}, fmt.Errorf("%w: line %d: %w", ErrInvalidDocument, lineNo, err)
			}
			end, err := ParseTimestamp(endText)
			if err != nil {
				return Document{}, fmt.Errorf("%w: line %d: %w", ErrInvalidDocument, lineNo, err)
			}
			current.Start, current.End = start, end
			state = stateText
		case stateText:
			if strings.TrimSpace(line) == "" {
				flush()
				state = stateIndex
				continue
			}
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return Document{}, fmt.Errorf("read srt: %w", err)
	}
	if state == stateTiming {
		return Document{}, fmt.Errorf("%w: cue %d has no timing line", ErrInvalidDocument, current.Index)
	}
	flush()
	return doc, nil
}

type parseState int

const (
	stateIndex parseState = iota
	stateTiming
	stateText
)
