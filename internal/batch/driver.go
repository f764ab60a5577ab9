package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vidsub/internal/fileutil"
	"vidsub/internal/logging"
	"vidsub/internal/pipeline"
	"vidsub/internal/services"
)

// ErrRunInProgress reports that another batch run holds the lock.
var ErrRunInProgress = errors.New("another batch run is in progress")

// Processor turns one media file into subtitle artifacts.
type Processor interface {
	Process(ctx context.Context, path string) pipeline.Outcome
	TargetArtifact(path string) string
}

// Recorder persists run progress. Recorder errors are logged, never fatal.
type Recorder interface {
	BeginRun(ctx context.Context, summary Summary) error
	Record(ctx context.Context, runID string, result Result) error
	FinishRun(ctx context.Context, summary Summary) error
}

// Driver runs batches of media files through a Processor.
type Driver struct {
	processor  Processor
	extensions []string
	overwrite  bool
	recorder   Recorder
	lockPath   string
	progressW  io.Writer
	logger     *slog.Logger
	newRunID   func() string
}

// Option customizes a Driver.
type Option func(*Driver)

// WithExtensions sets the media extensions to process.
func WithExtensions(exts []string) Option {
	return func(d *Driver) {
		if len(exts) > 0 {
			d.extensions = append([]string(nil), exts...)
		}
	}
}

// WithOverwrite regenerates subtitles even when the target artifact exists.
func WithOverwrite(overwrite bool) Option {
	return func(d *Driver) {
		d.overwrite = overwrite
	}
}

// WithRecorder attaches a run recorder such as the history store.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) {
		d.recorder = r
	}
}

// WithLockPath guards runs with an exclusive file lock at path.
func WithLockPath(path string) Option {
	return func(d *Driver) {
		d.lockPath = path
	}
}

// WithProgress reports progress to w; a terminal gets a progress bar.
func WithProgress(w io.Writer) Option {
	return func(d *Driver) {
		d.progressW = w
	}
}

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithRunIDFunc replaces run ID generation (for testing).
func WithRunIDFunc(fn func() string) Option {
	return func(d *Driver) {
		if fn != nil {
			d.newRunID = fn
		}
	}
}

// New constructs a Driver.
func New(processor Processor, opts ...Option) *Driver {
	d := &Driver{
		processor:  processor,
		extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"},
		logger:     logging.NewNop(),
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.NewComponentLogger(d.logger, "batch")
	return d
}

// Extensions returns the extensions the driver matches.
func (d *Driver) Extensions() []string {
	return append([]string(nil), d.extensions...)
}

// Run processes every media file under root. An invalid root returns
// ErrDirectoryInvalid before anything is processed. Cancellation is honoured
// between files; the summary so far is returned with ctx.Err().
func (d *Driver) Run(ctx context.Context, root string) (Summary, error) {
	files, err := Discover(root, d.extensions, d.logger)
	if err != nil {
		return Summary{Root: root}, err
	}
	return d.RunFiles(ctx, root, files)
}

// RunFiles processes the given files as one run rooted at root.
func (d *Driver) RunFiles(ctx context.Context, root string, files []string) (Summary, error) {
	summary := Summary{
		RunID:     d.newRunID(),
		Root:      root,
		StartedAt: time.Now(),
		Total:     len(files),
	}
	unlock, err := d.acquireLock()
	if err != nil {
		return summary, err
	}
	defer unlock()

	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, d.logger)
	if d.recorder != nil {
		if err := d.recorder.BeginRun(ctx, summary); err != nil {
			logger.Warn("history unavailable", logging.Error(err), logging.String(logging.FieldEventType, "history_error"))
		}
	}

	prog := newProgress(d.progressW, logger)
	prog.start(len(files))
	var runErr error
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		result := d.processFile(ctx, path)
		summary.add(result)
		prog.advance(i+1, len(files), result)
		if d.recorder != nil {
			// Record after cancellation too so the history shows what finished.
			if err := d.recorder.Record(context.WithoutCancel(ctx), summary.RunID, result); err != nil {
				logger.Warn("failed to record result", logging.Error(err), logging.String(logging.FieldEventType, "history_error"))
			}
		}
	}
	prog.finish()
	summary.FinishedAt = time.Now()

	if d.recorder != nil {
		if err := d.recorder.FinishRun(context.WithoutCancel(ctx), summary); err != nil {
			logger.Warn("failed to finish run record", logging.Error(err), logging.String(logging.FieldEventType, "history_error"))
		}
	}
	attrs := []logging.Attr{
		logging.Int("total", summary.Total),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("partial", summary.Partial),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	}
	if runErr != nil {
		logger.Info("batch interrupted", logging.Args(append(attrs, logging.Error(runErr))...)...)
	} else {
		logger.Info("batch finished", logging.Args(attrs...)...)
	}
	return summary, runErr
}

func (d *Driver) processFile(ctx context.Context, path string) Result {
	if !d.overwrite {
		target := d.processor.TargetArtifact(path)
		exists, err := fileutil.Exists(target)
		if err != nil {
			d.logger.Debug("stat target artifact failed", logging.String("artifact", target), logging.Error(err))
		}
		if exists {
			logging.Decision(logging.WithContext(services.WithMediaFile(ctx, path), d.logger),
				"skip", "skipped", "target subtitle exists", logging.String("artifact", target))
			return Result{Path: path, Status: StatusSkipped, Reason: "target subtitle exists: " + filepath.Base(target)}
		}
	}
	return resultFromOutcome(d.processor.Process(ctx, path))
}

func (d *Driver) acquireLock() (func(), error) {
	if d.lockPath == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(d.lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrRunInProgress, d.lockPath)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			d.logger.Warn("failed to release batch lock", logging.Error(err))
		}
	}, nil
}
