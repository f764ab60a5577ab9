// Package watch feeds new media files under a directory tree to a handler
// once they stop changing.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vidsub/internal/batch"
	"vidsub/internal/fileutil"
	"vidsub/internal/logging"
)

// DefaultSettle is how long a file must go without events before it is handled.
const DefaultSettle = 5 * time.Second

// Handler processes one settled media file. Calls never overlap.
type Handler func(ctx context.Context, path string)

// Watcher watches a directory tree for media files.
type Watcher struct {
	handler    Handler
	extensions []string
	settle     time.Duration
	logger     *slog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithExtensions sets the media extensions to react to.
func WithExtensions(exts []string) Option {
	return func(w *Watcher) {
		if len(exts) > 0 {
			w.extensions = append([]string(nil), exts...)
		}
	}
}

// WithSettle sets the quiet period before a file is handled.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithLogger sets the watcher logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New constructs a Watcher that calls handler for each settled media file.
func New(handler Handler, opts ...Option) *Watcher {
	w := &Watcher{
		handler:    handler,
		extensions: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"},
		settle:     DefaultSettle,
		logger:     logging.NewNop(),
		ready:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.NewComponentLogger(w.logger, "watch")
	return w
}

// Ready is closed once the initial directory watches are registered.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches root until ctx is cancelled. Existing files are not handled;
// only files created or modified after Run starts are.
func (w *Watcher) Run(ctx context.Context, root string) error {
	if err := batch.ValidateRoot(root); err != nil {
		return err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, root, nil); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	w.readyOnce.Do(func() { close(w.ready) })
	w.logger.Info("watching for media files",
		logging.String("root", root),
		logging.Duration("settle", w.settle),
	)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(tickInterval(w.settle))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch stopped", logging.Int("pending", len(pending)))
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			w.handleEvent(fsw, event, pending)
		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", logging.Error(err), logging.String(logging.FieldEventType, "watch_error"))
		case now := <-ticker.C:
			for _, path := range settled(pending, now, w.settle) {
				delete(pending, path)
				if ctx.Err() != nil {
					return nil
				}
				if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
					continue
				}
				w.logger.Debug("file settled", logging.String("path", path))
				w.handler(ctx, path)
			}
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event, pending map[string]time.Time) {
	if fileutil.IsHidden(filepath.Base(event.Name)) {
		return
	}
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		delete(pending, event.Name)
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Has(fsnotify.Create) {
			// Files may land in a new directory before its watch exists.
			if err := w.addTree(fsw, event.Name, pending); err != nil {
				w.logger.Warn("failed to watch new directory",
					logging.String("path", event.Name),
					logging.Error(err),
					logging.String(logging.FieldEventType, "watch_error"),
				)
			}
		}
		return
	}
	if batch.MatchExtension(event.Name, w.extensions) {
		pending[event.Name] = time.Now()
	}
}

// addTree watches dir and its non-hidden subdirectories. When pending is
// non-nil, media files already present are queued.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string, pending map[string]time.Time) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if path != dir && fileutil.IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(path); err != nil {
				if path == dir {
					return err
				}
				w.logger.Debug("failed to watch subdirectory", logging.String("path", path), logging.Error(err))
			}
			return nil
		}
		if pending != nil && batch.MatchExtension(path, w.extensions) {
			pending[path] = time.Now()
		}
		return nil
	})
}

// settled returns pending paths quiet for at least settle, sorted.
func settled(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			ready = append(ready, path)
		}
	}
	slices.Sort(ready)
	return ready
}

func tickInterval(settle time.Duration) time.Duration {
	return max(settle/4, 10*time.Millisecond)
}
