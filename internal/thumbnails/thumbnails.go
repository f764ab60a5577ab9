// Package thumbnails captures evenly spaced screenshots from media files.
package thumbnails

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"vidsub/internal/batch"
	"vidsub/internal/logging"
	"vidsub/internal/media/ffprobe"
	"vidsub/internal/services"
)

const (
	DefaultCount  = 4
	DefaultMargin = 0.05
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// CaptureTimes drops a margin fraction of duration from both ends, splits
// the rest into count parts, and returns the end of each part. Invalid
// inputs yield nil.
func CaptureTimes(duration float64, count int, margin float64) []float64 {
	if count <= 0 || duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil
	}
	if margin < 0 || margin >= 0.5 {
		margin = DefaultMargin
	}
	edge := duration * margin
	segment := (duration - 2*edge) / float64(count)
	times := make([]float64, count)
	for i := range times {
		times[i] = edge + segment*float64(i+1)
	}
	return times
}

// CleanImages removes image files directly inside dir and returns how many
// were deleted.
func CleanImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !batch.MatchExtension(entry.Name(), imageExtensions) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// CommandRunner runs an external command.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// ProbeFunc inspects a media file.
type ProbeFunc func(ctx context.Context, path string) (ffprobe.Result, error)

// Capturer writes screenshots with ffmpeg.
type Capturer struct {
	ffmpeg     string
	probe      ProbeFunc
	run        CommandRunner
	count      int
	margin     float64
	extensions []string
	logger     *slog.Logger
}

// Option customizes a Capturer.
type Option func(*Capturer)

// WithCount sets how many screenshots are taken per file.
func WithCount(n int) Option {
	return func(c *Capturer) {
		if n > 0 {
			c.count = n
		}
	}
}

// WithMargin sets the fraction skipped at each end of the video.
func WithMargin(ratio float64) Option {
	return func(c *Capturer) {
		if ratio >= 0 && ratio < 0.5 {
			c.margin = ratio
		}
	}
}

// WithExtensions sets the media extensions processed by Run.
func WithExtensions(exts []string) Option {
	return func(c *Capturer) {
		if len(exts) > 0 {
			c.extensions = append([]string(nil), exts...)
		}
	}
}

// WithCommandRunner replaces command execution (for testing).
func WithCommandRunner(run CommandRunner) Option {
	return func(c *Capturer) {
		if run != nil {
			c.run = run
		}
	}
}

// WithLogger sets the capturer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Capturer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCapturer constructs a Capturer.
func NewCapturer(ffmpegBinary string, probe ProbeFunc, opts ...Option) *Capturer {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	c := &Capturer{
		ffmpeg:     ffmpegBinary,
		probe:      probe,
		run:        runCommand,
		count:      DefaultCount,
		margin:     DefaultMargin,
		extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "thumbnails")
	return c
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Capture writes <base>_screenshot_<i>.jpg files for video into outDir and
// returns the paths written.
func (c *Capturer) Capture(ctx context.Context, video, outDir string) ([]string, error) {
	result, err := c.probe(ctx, video)
	if err != nil {
		return nil, err
	}
	if len(result.Streams) > 0 && result.VideoStreamCount() == 0 {
		return nil, services.Wrap(services.ErrValidation, "thumbnails", "capture", "no video stream", nil)
	}
	times := CaptureTimes(result.DurationSeconds(), c.count, c.margin)
	if len(times) == 0 {
		return nil, services.Wrap(services.ErrValidation, "thumbnails", "capture", "duration unavailable", nil)
	}
	base := strings.TrimSuffix(filepath.Base(video), filepath.Ext(video))
	var (
		written []string
		errs    []error
	)
	for i, at := range times {
		out := filepath.Join(outDir, fmt.Sprintf("%s_screenshot_%d.jpg", base, i+1))
		args := []string{
			"-y", "-hide_banner", "-loglevel", "error",
			"-ss", strconv.FormatFloat(at, 'f', 3, 64),
			"-i", video,
			"-frames:v", "1",
			"-q:v", "2",
			out,
		}
		if err := c.run(ctx, c.ffmpeg, args...); err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			errs = append(errs, services.Wrap(services.ErrExternalTool, "thumbnails", "capture", fmt.Sprintf("frame %d", i+1), err))
			continue
		}
		written = append(written, out)
		c.logger.Debug("screenshot saved",
			logging.String("path", out),
			logging.Float64("at_seconds", at),
		)
	}
	return written, errors.Join(errs...)
}

// Summary counts the outcome of a thumbnail run.
type Summary struct {
	Videos      int
	Screenshots int
	Cleaned     int
	Errors      int
}

// Run captures screenshots for every media file under root, writing them
// beside each file. When clean is set, existing images in root are removed
// first.
func (c *Capturer) Run(ctx context.Context, root string, clean bool) (Summary, error) {
	if err := batch.ValidateRoot(root); err != nil {
		return Summary{}, err
	}
	var summary Summary
	if clean {
		n, err := CleanImages(root)
		summary.Cleaned = n
		if err != nil {
			c.logger.Warn("failed to remove some images", logging.Error(err), logging.String(logging.FieldEventType, "clean_failed"))
		}
	}
	files, err := batch.Discover(root, c.extensions, c.logger)
	if err != nil {
		return summary, err
	}
	summary.Videos = len(files)
	for _, video := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		written, err := c.Capture(ctx, video, filepath.Dir(video))
		summary.Screenshots += len(written)
		if err != nil {
			summary.Errors++
			c.logger.Warn("screenshot capture failed",
				logging.String("path", video),
				logging.Error(err),
				logging.String(logging.FieldEventType, "capture_failed"),
			)
		}
	}
	c.logger.Info("thumbnails finished",
		logging.Int("videos", summary.Videos),
		logging.Int("screenshots", summary.Screenshots),
		logging.Int("cleaned", summary.Cleaned),
		logging.Int("errors", summary.Errors),
	)
	return summary, nil
}
