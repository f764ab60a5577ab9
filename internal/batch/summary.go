package batch

import (
	"time"

	"vidsub/internal/pipeline"
)

// Status is the batch-level classification of one file.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Result is what happened to one file in a run.
type Result struct {
	Path    string
	Status  Status
	Outcome pipeline.Outcome
	// Reason explains skipped, partial, and failed results.
	Reason string
}

// Summary aggregates a batch run.
type Summary struct {
	RunID      string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Partial    int
	Skipped    int
	Failed     int
	Results    []Result
}

// Processed returns how many files reached a result.
func (s Summary) Processed() int {
	return s.Succeeded + s.Partial + s.Skipped + s.Failed
}

func (s *Summary) add(result Result) {
	switch result.Status {
	case StatusSucceeded:
		s.Succeeded++
	case StatusPartial:
		s.Partial++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
	s.Results = append(s.Results, result)
}

func resultFromOutcome(outcome pipeline.Outcome) Result {
	result := Result{Path: outcome.Path, Outcome: outcome}
	switch outcome.State {
	case pipeline.StateDone:
		result.Status = StatusSucceeded
	case pipeline.StatePartial:
		result.Status = StatusPartial
	default:
		result.Status = StatusFailed
	}
	if outcome.Err != nil {
		result.Reason = outcome.Err.Error()
	}
	return result
}
