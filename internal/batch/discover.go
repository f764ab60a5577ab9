package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"vidsub/internal/fileutil"
	"vidsub/internal/logging"
)

// ErrDirectoryInvalid reports a batch root that is missing or not a directory.
var ErrDirectoryInvalid = errors.New("invalid media directory")

// ValidateRoot checks that root exists and is a directory.
func ValidateRoot(root string) error {
	if strings.TrimSpace(root) == "" {
		return fmt.Errorf("%w: path is empty", ErrDirectoryInvalid)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDirectoryInvalid, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirectoryInvalid, root)
	}
	return nil
}

// MatchExtension reports whether path has one of the extensions, compared
// case-insensitively. Extensions are expected lower-case with a leading dot.
func MatchExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && slices.Contains(extensions, ext)
}

// Discover returns media files under root in lexical walk order. Hidden
// files and directories are ignored. Unreadable subdirectories are logged
// and skipped.
func Discover(root string, extensions []string, logger *slog.Logger) ([]string, error) {
	if err := ValidateRoot(root); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "walk_error"),
			)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}
		if fileutil.IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if MatchExtension(path, extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryInvalid, err)
	}
	return files, nil
}
