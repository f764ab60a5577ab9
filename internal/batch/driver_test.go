package batch_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"vidsub/internal/batch"
	"vidsub/internal/pipeline"
)

type fakeProcessor struct {
	mu     sync.Mutex
	seen   []string
	fail   map[string]bool
	onCall func(path string)
}

func (f *fakeProcessor) Process(_ context.Context, path string) pipeline.Outcome {
	f.mu.Lock()
	f.seen = append(f.seen, path)
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall(path)
	}
	if f.fail[filepath.Base(path)] {
		return pipeline.Outcome{Path: path, State: pipeline.StateFailed, Err: pipeline.ErrRecognitionFailed}
	}
	return pipeline.Outcome{Path: path, State: pipeline.StateDone}
}

func (f *fakeProcessor) TargetArtifact(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".zh.srt"
}

type memoryRecorder struct {
	began    []string
	results  []batch.Result
	finished []batch.Summary
}

func (m *memoryRecorder) BeginRun(_ context.Context, s batch.Summary) error {
	m.began = append(m.began, s.RunID)
	return nil
}

func (m *memoryRecorder) Record(_ context.Context, _ string, r batch.Result) error {
	m.results = append(m.results, r)
	return nil
}

func (m *memoryRecorder) FinishRun(_ context.Context, s batch.Summary) error {
	m.finished = append(m.finished, s)
	return nil
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunCountsSuccessesAndFailures(t *testing.T) {
	root := t.TempDir()
	for i := range 10 {
		touch(t, filepath.Join(root, fmt.Sprintf("video%02d.mp4", i)))
	}
	proc := &fakeProcessor{fail: map[string]bool{"video03.mp4": true}}
	rec := &memoryRecorder{}
	driver := batch.New(proc,
		batch.WithRecorder(rec),
		batch.WithLockPath(filepath.Join(t.TempDir(), "vidsub.lock")),
		batch.WithRunIDFunc(func() string { return "run-1" }),
	)

	summary, err := driver.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Total != 10 || summary.Succeeded != 9 || summary.Failed != 1 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.RunID != "run-1" || len(summary.Results) != 10 {
		t.Fatalf("unexpected run id or results: %+v", summary)
	}
	if len(proc.seen) != 10 {
		t.Fatalf("processed %d files, want 10", len(proc.seen))
	}
	failed := summary.Results[3]
	if failed.Status != batch.StatusFailed || !strings.Contains(failed.Reason, "recognition failed") {
		t.Fatalf("unexpected failed result %+v", failed)
	}
	if len(rec.began) != 1 || len(rec.results) != 10 || len(rec.finished) != 1 {
		t.Fatalf("recorder saw began=%d results=%d finished=%d", len(rec.began), len(rec.results), len(rec.finished))
	}
}

func TestRunRejectsInvalidDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "movie.mp4")
	touch(t, file)

	for _, root := range []string{filepath.Join(dir, "missing"), file, ""} {
		proc := &fakeProcessor{}
		_, err := batch.New(proc).Run(context.Background(), root)
		if !errors.Is(err, batch.ErrDirectoryInvalid) {
			t.Fatalf("Run(%q) err = %v, want ErrDirectoryInvalid", root, err)
		}
		if len(proc.seen) != 0 {
			t.Fatalf("Run(%q) processed files", root)
		}
	}
}

func TestRunFiltersExtensionsAndHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.MKV"))
	touch(t, filepath.Join(root, "nested", "b.webm"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".cache", "c.mp4"))
	touch(t, filepath.Join(root, "._d.mp4"))

	proc := &fakeProcessor{}
	summary, err := batch.New(proc).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{filepath.Join(root, "a.MKV"), filepath.Join(root, "nested", "b.webm")}
	if !slices.Equal(proc.seen, want) {
		t.Fatalf("processed %v, want %v", proc.seen, want)
	}
	if summary.Total != 2 {
		t.Fatalf("total = %d, want 2", summary.Total)
	}
}

func TestRunSkipsExistingTargetUnlessOverwrite(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "done.mp4"))
	touch(t, filepath.Join(root, "done.zh.srt"))
	touch(t, filepath.Join(root, "todo.mp4"))

	proc := &fakeProcessor{}
	summary, err := batch.New(proc).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 1 || summary.Succeeded != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(proc.seen) != 1 || filepath.Base(proc.seen[0]) != "todo.mp4" {
		t.Fatalf("processed %v", proc.seen)
	}

	proc = &fakeProcessor{}
	summary, err = batch.New(proc, batch.WithOverwrite(true)).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Skipped != 0 || summary.Succeeded != 2 {
		t.Fatalf("overwrite summary %+v", summary)
	}
}

func TestRunStopsAtFileBoundaryOnCancel(t *testing.T) {
	root := t.TempDir()
	for i := range 5 {
		touch(t, filepath.Join(root, fmt.Sprintf("v%d.mov", i)))
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	proc := &fakeProcessor{}
	proc.onCall = func(path string) {
		if filepath.Base(path) == "v1.mov" {
			cancel()
		}
	}

	summary, err := batch.New(proc).Run(ctx, root)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if summary.Processed() != 2 || summary.Total != 5 {
		t.Fatalf("processed %d of %d, want 2 of 5", summary.Processed(), summary.Total)
	}
}

func TestRunRefusesConcurrentRun(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp4"))
	lockPath := filepath.Join(t.TempDir(), "vidsub.lock")

	var innerErr error
	inner := batch.New(&fakeProcessor{}, batch.WithLockPath(lockPath))
	proc := &fakeProcessor{onCall: func(string) {
		_, innerErr = inner.Run(context.Background(), root)
	}}
	if _, err := batch.New(proc, batch.WithLockPath(lockPath)).Run(context.Background(), root); err != nil {
		t.Fatalf("outer Run: %v", err)
	}
	if !errors.Is(innerErr, batch.ErrRunInProgress) {
		t.Fatalf("inner err = %v, want ErrRunInProgress", innerErr)
	}
}

func TestRunReportsProgressToNonTerminal(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.mp4"))
	var buf bytes.Buffer
	if _, err := batch.New(&fakeProcessor{}, batch.WithProgress(&buf)).Run(context.Background(), root); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("non-terminal writer should not receive a progress bar, got %q", buf.String())
	}
}

func TestMatchExtension(t *testing.T) {
	exts := []string{".mp4", ".mkv"}
	tests := map[string]bool{
		"a.mp4":      true,
		"B.MKV":      true,
		"c.mp4.part": false,
		"noext":      false,
		"d.avi":      false,
	}
	for path, want := range tests {
		if got := batch.MatchExtension(path, exts); got != want {
			t.Errorf("MatchExtension(%q) = %v, want %v", path, got, want)
		}
	}
}
