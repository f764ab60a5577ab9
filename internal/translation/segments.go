package translation

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"vidsub/internal/language"
	"vidsub/internal/logging"
	"vidsub/internal/transcript"
)

// SegmentTranslator translates whole transcripts one segment at a time.
type SegmentTranslator struct {
	chain   *Chain
	workers int
	logger  *slog.Logger
}

// SegmentOption customizes a SegmentTranslator.
type SegmentOption func(*SegmentTranslator)

// WithWorkers bounds how many segments are translated concurrently.
func WithWorkers(n int) SegmentOption {
	return func(s *SegmentTranslator) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSegmentLogger sets the logger used for per-transcript summaries.
func WithSegmentLogger(logger *slog.Logger) SegmentOption {
	return func(s *SegmentTranslator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSegmentTranslator wraps chain. Segments are translated sequentially
// unless WithWorkers says otherwise.
func NewSegmentTranslator(chain *Chain, opts ...SegmentOption) *SegmentTranslator {
	s := &SegmentTranslator{chain: chain, workers: 1, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "translation")
	return s
}

// Chain returns the underlying provider chain.
func (s *SegmentTranslator) Chain() *Chain {
	return s.chain
}

// Translate returns a copy of t in target. When t is already in target the
// copy is returned untouched and no provider is called. Otherwise every
// segment goes through the chain independently; a segment whose chain is
// exhausted keeps its original text. Start and End are copied bit for bit.
func (s *SegmentTranslator) Translate(ctx context.Context, t transcript.Transcript, target string) transcript.Transcript {
	if language.Same(t.Language, target) {
		return t.Clone()
	}

	out := t.Clone()
	out.Language = target
	source := language.Normalize(t.Language)

	var kept atomic.Int64
	translate := func(i int) {
		text, attempts := s.chain.Attempts(ctx, t.Segments[i].Text, source)
		if Exhausted(attempts) {
			kept.Add(1)
		}
		out.Segments[i].Text = text
	}

	if s.workers <= 1 || len(t.Segments) <= 1 {
		for i := range t.Segments {
			translate(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.workers)
		for i := range t.Segments {
			g.Go(func() error {
				translate(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	logger := logging.WithContext(ctx, s.logger)
	if n := kept.Load(); n > 0 {
		logging.WarnWithContext(logger, "some segments kept their original text", "translation_partial",
			logging.Int64("segments_kept", n),
			logging.Int("segments_total", len(t.Segments)),
			logging.String(logging.FieldImpact, "translated subtitles mix source and target language"),
		)
	} else {
		logger.Debug("transcript translated",
			logging.Int("segments", len(t.Segments)),
			logging.String("source", source),
			logging.String("target", s.chain.Target()),
		)
	}
	return out
}
