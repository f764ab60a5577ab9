// Package resolution prefixes media file names with their resolution bucket,
// e.g. movie.mp4 becomes 1080px_movie.mp4.
package resolution

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vidsub/internal/batch"
	"vidsub/internal/fileutil"
	"vidsub/internal/logging"
	"vidsub/internal/media/ffprobe"
)

// Buckets lists the resolution categories by their upper bound on the larger side.
var Buckets = []int{240, 360, 480, 560, 720, 1080, 2160, 4320}

// Category returns the bucket for the larger of width and height, or "" when
// it exceeds the largest bucket.
func Category(width, height int) string {
	side := max(width, height)
	for _, bucket := range Buckets {
		if side <= bucket {
			return strconv.Itoa(bucket)
		}
	}
	return ""
}

// HasPrefix reports whether name already carries a "<bucket>px_" prefix.
func HasPrefix(name string) bool {
	for _, bucket := range Buckets {
		if strings.HasPrefix(name, strconv.Itoa(bucket)+"px_") {
			return true
		}
	}
	return false
}

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Summary counts the outcome of a rename run.
type Summary struct {
	Total   int
	Renamed int
	Skipped int
	Errors  int
}

// Renamer renames media files under a directory tree.
type Renamer struct {
	probe      ProbeFunc
	extensions []string
	dryRun     bool
	logger     *slog.Logger
}

// Option customizes a Renamer.
type Option func(*Renamer)

// WithDryRun logs planned renames without touching files.
func WithDryRun(dryRun bool) Option {
	return func(r *Renamer) { r.dryRun = dryRun }
}

// WithExtensions sets the media extensions to consider.
func WithExtensions(exts []string) Option {
	return func(r *Renamer) {
		if len(exts) > 0 {
			r.extensions = append([]string(nil), exts...)
		}
	}
}

// WithLogger sets the renamer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renamer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRenamer constructs a Renamer using probe to read dimensions.
func NewRenamer(probe ProbeFunc, opts ...Option) *Renamer {
	r := &Renamer{
		probe:      probe,
		extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "rename")
	return r
}

// FFprobe returns a ProbeFunc backed by the ffprobe binary.
func FFprobe(binary string) ProbeFunc {
	return func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, binary, path)
	}
}

// Run renames every media file under root. Files already prefixed, files
// above the largest bucket, and files whose new name is taken are skipped.
// Probe and rename failures are counted and logged; Run only returns an
// error for an invalid root or cancellation.
func (r *Renamer) Run(ctx context.Context, root string) (Summary, error) {
	files, err := batch.Discover(root, r.extensions, r.logger)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Total: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		switch r.renameOne(ctx, path) {
		case actionRenamed:
			summary.Renamed++
		case actionSkipped:
			summary.Skipped++
		default:
			summary.Errors++
		}
	}
	r.logger.Info("rename finished",
		logging.Int("total", summary.Total),
		logging.Int("renamed", summary.Renamed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("errors", summary.Errors),
		logging.Bool("dry_run", r.dryRun),
	)
	return summary, nil
}

type action int

const (
	actionFailed action = iota
	actionRenamed
	actionSkipped
)

func (r *Renamer) renameOne(ctx context.Context, path string) action {
	name := filepath.Base(path)
	logger := r.logger.With(logging.String("path", path))
	if HasPrefix(name) {
		logger.Debug("already named by resolution")
		return actionSkipped
	}
	result, err := r.probe(ctx, path)
	if err != nil {
		logger.Warn("probe failed", logging.Error(err), logging.String(logging.FieldEventType, "probe_failed"))
		return actionFailed
	}
	width, height, ok := result.VideoDimensions()
	if !ok {
		logger.Warn("no video dimensions", logging.String(logging.FieldEventType, "probe_failed"))
		return actionFailed
	}
	category := Category(width, height)
	if category == "" {
		logger.Info("resolution above largest bucket", logging.Int("width", width), logging.Int("height", height))
		return actionSkipped
	}
	target := filepath.Join(filepath.Dir(path), fmt.Sprintf("%spx_%s", category, name))
	exists, err := fileutil.Exists(target)
	if err != nil {
		logger.Warn("stat target failed", logging.Error(err))
		return actionFailed
	}
	if exists {
		logger.Info("target name taken", logging.String("target", target))
		return actionSkipped
	}
	if r.dryRun {
		logger.Info("would rename", logging.String("target", filepath.Base(target)))
		return actionRenamed
	}
	if err := os.Rename(path, target); err != nil {
		logger.Warn("rename failed", logging.Error(err), logging.String(logging.FieldEventType, "rename_failed"))
		return actionFailed
	}
	logger.Info("renamed", logging.String("target", filepath.Base(target)))
	return actionRenamed
}
