package batch

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"vidsub/internal/logging"
)

type progress interface {
	start(total int)
	advance(index, total int, result Result)
	finish()
}

// newProgress picks a progress bar for terminals and log lines otherwise.
func newProgress(w io.Writer, logger *slog.Logger) progress {
	if isTerminal(w) {
		return &barProgress{w: w}
	}
	return &logProgress{logger: logger}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *barProgress) start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("subtitles"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *barProgress) advance(_, _ int, result Result) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(filepath.Base(result.Path))
	_ = p.bar.Add(1)
}

func (p *barProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

type logProgress struct {
	logger *slog.Logger
}

func (p *logProgress) start(total int) {
	p.logger.Info("batch started", logging.Int("files", total))
}

func (p *logProgress) advance(index, total int, result Result) {
	p.logger.Info("file processed",
		logging.Int("index", index),
		logging.Int("total", total),
		logging.String("path", result.Path),
		logging.String("status", string(result.Status)),
	)
}

func (p *logProgress) finish() {}
