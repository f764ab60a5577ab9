package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"vidsub/internal/fileutil"
	"vidsub/internal/language"
	"vidsub/internal/logging"
	"vidsub/internal/services"
	"vidsub/internal/srt"
	"vidsub/internal/transcript"
)

var (
	// ErrRecognitionFailed marks files whose speech recognition failed.
	ErrRecognitionFailed = errors.New("recognition failed")
	// ErrWriteFailed marks an artifact that could not be written.
	ErrWriteFailed = errors.New("subtitle write failed")
)

// DefaultTarget is the target language used when none is configured.
const DefaultTarget = "zh"

// Recognizer produces a transcript and detected language for a media file.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (transcript.Transcript, error)
}

// Translator produces a copy of a transcript in the target language.
type Translator interface {
	Translate(ctx context.Context, t transcript.Transcript, target string) transcript.Transcript
}

// Artifact describes one subtitle file planned for a media file.
type Artifact struct {
	Language string
	Path     string
	// Written is true once the artifact is on disk.
	Written bool
	Err     error
}

// Outcome reports what happened to one media file.
type Outcome struct {
	Path             string
	State            State
	DetectedLanguage string
	Segments         int
	Translated       bool
	Artifacts        []Artifact
	// Err explains a failed or partial outcome.
	Err      error
	Duration time.Duration
	// States lists every state entered, in order.
	States []State
}

// WrittenPaths returns the artifacts that reached disk.
func (o Outcome) WrittenPaths() []string {
	var out []string
	for _, a := range o.Artifacts {
		if a.Written {
			out = append(out, a.Path)
		}
	}
	return out
}

// Pipeline processes media files one at a time.
type Pipeline struct {
	recognizer Recognizer
	translator Translator
	target     string
	outputDir  string
	sourceRoot string
	logger     *slog.Logger
	writeFile  func(path string, data []byte, perm os.FileMode) error
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithTarget sets the target language tag used for translation and naming.
func WithTarget(tag string) Option {
	return func(p *Pipeline) {
		if tag = strings.TrimSpace(tag); tag != "" {
			p.target = tag
		}
	}
}

// WithOutputDir writes artifacts under dir instead of beside the media file,
// preserving each file's location relative to sourceRoot.
func WithOutputDir(dir, sourceRoot string) Option {
	return func(p *Pipeline) {
		p.outputDir = strings.TrimSpace(dir)
		p.sourceRoot = strings.TrimSpace(sourceRoot)
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithWriteFunc replaces the artifact writer (for testing).
func WithWriteFunc(fn func(path string, data []byte, perm os.FileMode) error) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.writeFile = fn
		}
	}
}

// New constructs a pipeline around a recognizer built once per run.
func New(recognizer Recognizer, translator Translator, opts ...Option) *Pipeline {
	p := &Pipeline{
		recognizer: recognizer,
		translator: translator,
		target:     DefaultTarget,
		logger:     logging.NewNop(),
		writeFile:  fileutil.WriteFileAtomic,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// Target returns the configured target language tag.
func (p *Pipeline) Target() string {
	return p.target
}

type run struct {
	outcome Outcome
	logger  *slog.Logger
}

func (r *run) enter(state State) {
	if prev := r.outcome.State; prev != "" && !CanTransition(prev, state) {
		r.logger.Error("unexpected state transition",
			logging.String("from", string(prev)),
			logging.String("to", string(state)),
		)
	}
	r.outcome.State = state
	r.outcome.States = append(r.outcome.States, state)
	r.logger.Debug("state changed", logging.String("state", string(state)))
}

// Process generates subtitles for mediaPath. It never returns an error; the
// outcome's State and Err describe any failure.
func (p *Pipeline) Process(ctx context.Context, mediaPath string) Outcome {
	started := time.Now()
	ctx = services.WithMediaFile(ctx, mediaPath)
	r := &run{
		outcome: Outcome{Path: mediaPath},
		logger:  logging.WithContext(ctx, p.logger),
	}
	p.process(ctx, r)
	r.outcome.Duration = time.Since(started)
	return r.outcome
}

func (p *Pipeline) process(ctx context.Context, r *run) {
	mediaPath := r.outcome.Path
	r.enter(StateRecognizing)
	if err := ctx.Err(); err != nil {
		p.fail(r, fmt.Errorf("%w: %w", ErrRecognitionFailed, err))
		return
	}
	if p.recognizer == nil {
		p.fail(r, services.Wrap(ErrRecognitionFailed, "pipeline", "recognize", "no recognizer configured", nil))
		return
	}
	original, err := p.recognizer.Recognize(services.WithStage(ctx, string(StateRecognizing)), mediaPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = errors.Join(err, ctxErr)
		}
		p.fail(r, fmt.Errorf("%w: %w", ErrRecognitionFailed, err))
		return
	}
	r.outcome.DetectedLanguage = original.Language
	r.outcome.Segments = len(original.Segments)
	if original.Empty() {
		logging.WarnWithContext(r.logger, "no speech recognized", "recognition_empty",
			logging.String(logging.FieldErrorHint, "check that the file has an audible dialogue track"),
			logging.String(logging.FieldImpact, "subtitle files will be empty"),
		)
	}

	planned := []transcript.Transcript{original}
	if language.Same(original.Language, p.target) {
		// "zh" and "zh-CN" both satisfy the target; the artifact carries the
		// target tag so the batch skip check finds it on the next run.
		planned[0].Language = p.target
		logging.Decision(r.logger, "translation", "skipped", "detected language matches target",
			logging.String("detected_language", original.Language))
	} else {
		r.enter(StateTranslating)
		if p.translator == nil {
			p.fail(r, services.Wrap(services.ErrConfiguration, "pipeline", "translate", "no translator configured", nil))
			return
		}
		translated := p.translator.Translate(services.WithStage(ctx, string(StateTranslating)), original, p.target)
		translated.Language = p.target
		if err := ctx.Err(); err != nil {
			p.fail(r, err)
			return
		}
		r.outcome.Translated = true
		planned = append(planned, translated)
	}

	r.enter(StateSerializing)
	payloads := make([][]byte, len(planned))
	for i, t := range planned {
		doc := srt.Build(t.Segments)
		if err := doc.Validate(); err != nil {
			r.logger.Debug("subtitle timing irregular", logging.Error(err))
		}
		payloads[i] = []byte(doc.String())
		r.outcome.Artifacts = append(r.outcome.Artifacts, Artifact{
			Language: t.Language,
			Path:     p.ArtifactPath(mediaPath, t.Language),
		})
	}

	r.enter(StateWriting)
	var writeErrs []error
	for i := range r.outcome.Artifacts {
		if err := ctx.Err(); err != nil {
			p.rollback(r, err)
			p.fail(r, err)
			return
		}
		artifact := &r.outcome.Artifacts[i]
		if err := p.writeFile(artifact.Path, payloads[i], 0o644); err != nil {
			artifact.Err = fmt.Errorf("%w: %s: %w", ErrWriteFailed, artifact.Path, err)
			writeErrs = append(writeErrs, artifact.Err)
			logging.ErrorWithContext(r.logger, "subtitle write failed", "write_failed",
				logging.String("artifact", artifact.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions and free space in the output directory"),
			)
			continue
		}
		artifact.Written = true
		r.logger.Debug("subtitle written", logging.String("artifact", artifact.Path))
	}
	if err := ctx.Err(); err != nil {
		p.rollback(r, err)
		p.fail(r, err)
		return
	}

	written := len(r.outcome.WrittenPaths())
	switch {
	case written == len(r.outcome.Artifacts):
		r.enter(StateDone)
		r.logger.Info("subtitles generated",
			logging.String("detected_language", original.Language),
			logging.Int("segments", r.outcome.Segments),
			logging.Int("artifacts", written),
		)
	case written > 0:
		r.outcome.Err = errors.Join(writeErrs...)
		r.enter(StatePartial)
		logging.WarnWithContext(r.logger, "subtitles partially generated", "pipeline_partial",
			logging.Int("artifacts_written", written),
			logging.Int("artifacts_planned", len(r.outcome.Artifacts)),
			logging.String(logging.FieldImpact, "one subtitle language is missing for this file"),
		)
	default:
		p.fail(r, errors.Join(writeErrs...))
	}
}

func (p *Pipeline) fail(r *run, err error) {
	r.outcome.Err = err
	r.enter(StateFailed)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.logger.Info("processing cancelled", logging.Error(err))
		return
	}
	logging.ErrorWithContext(r.logger, "subtitle generation failed", "pipeline_failed",
		logging.Error(err),
		logging.String("error_class", services.Classify(err)),
	)
}

// rollback removes artifacts written for the current file.
func (p *Pipeline) rollback(r *run, cause error) {
	for i := range r.outcome.Artifacts {
		artifact := &r.outcome.Artifacts[i]
		if !artifact.Written {
			continue
		}
		if err := os.Remove(artifact.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn("failed to remove partial artifact",
				logging.String("artifact", artifact.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "rollback_failed"),
			)
		}
		artifact.Written = false
		artifact.Err = cause
	}
}
