package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"vidsub/internal/batch"
	"vidsub/internal/history"
	"vidsub/internal/pipeline"
	"vidsub/internal/services"
	"vidsub/internal/testsupport"
)

func TestRunRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	summary := batch.Summary{RunID: "run-a", Root: "/videos", StartedAt: started, Total: 2}
	if err := store.BeginRun(ctx, summary); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	ok := batch.Result{
		Path:   "/videos/a.mkv",
		Status: batch.StatusSucceeded,
		Outcome: pipeline.Outcome{
			Path:             "/videos/a.mkv",
			State:            pipeline.StateDone,
			DetectedLanguage: "en",
			Duration:         1500 * time.Millisecond,
			Artifacts: []pipeline.Artifact{
				{Language: "en", Path: "/videos/a.en.srt", Written: true},
				{Language: "zh", Path: "/videos/a.zh.srt", Written: true},
			},
		},
	}
	failErr := services.Wrap(services.ErrExternalTool, "whisperx", "transcribe", "command failed", errors.New("exit 1"))
	bad := batch.Result{
		Path:    "/videos/b.mkv",
		Status:  batch.StatusFailed,
		Reason:  "recognition failed",
		Outcome: pipeline.Outcome{Path: "/videos/b.mkv", State: pipeline.StateFailed, Err: failErr},
	}
	for _, r := range []batch.Result{ok, bad} {
		if err := store.Record(ctx, summary.RunID, r); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	summary.Succeeded, summary.Failed = 1, 1
	summary.FinishedAt = started.Add(time.Minute)
	if err := store.FinishRun(ctx, summary); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	run, err := store.GetRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Root != "/videos" || run.Total != 2 || run.Succeeded != 1 || run.Failed != 1 {
		t.Fatalf("unexpected run %+v", run)
	}
	if !run.StartedAt.Equal(started) || !run.Finished() {
		t.Fatalf("unexpected timestamps %+v", run)
	}

	files, err := store.RunFiles(ctx, "run-a")
	if err != nil {
		t.Fatalf("RunFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	if files[0].DetectedLanguage != "en" || !slices.Equal(files[0].Artifacts, []string{"/videos/a.en.srt", "/videos/a.zh.srt"}) {
		t.Fatalf("unexpected first file %+v", files[0])
	}
	if files[0].Duration != 1500*time.Millisecond {
		t.Fatalf("duration = %v", files[0].Duration)
	}
	if files[1].State != "failed" || files[1].ErrorClass != "external_tool" || files[1].Reason != "recognition failed" {
		t.Fatalf("unexpected second file %+v", files[1])
	}
	if files[1].Artifacts != nil {
		t.Fatalf("failed file should have no artifacts, got %v", files[1].Artifacts)
	}
}

func TestRecentRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		s := batch.Summary{RunID: id, Root: "/r", StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.BeginRun(ctx, s); err != nil {
			t.Fatalf("BeginRun(%s): %v", id, err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if !slices.Equal(ids, []string{"third", "second"}) {
		t.Fatalf("ids = %v", ids)
	}
	if runs[0].Finished() {
		t.Fatal("unfinished run reported as finished")
	}

	all, err := store.RecentRuns(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Fatalf("RecentRuns(0) = %d runs, err %v", len(all), err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	if _, err := store.GetRun(context.Background(), "missing"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("err = %v, want ErrRunNotFound", err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.BeginRun(context.Background(), batch.Summary{RunID: "persisted", Root: "/r"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetRun(context.Background(), "persisted"); err != nil {
		t.Fatalf("GetRun after reopen: %v", err)
	}
}

func TestDriverRecordsIntoHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	root := t.TempDir()
	testsupport.WriteFiles(t, root, "a.mp4", "sub/b.mkv")

	driver := batch.New(doneProcessor{}, batch.WithRecorder(store), batch.WithLockPath(cfg.LockPath()))
	summary, err := driver.Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	run, err := store.GetRun(context.Background(), summary.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Total != 2 || run.Succeeded != 2 || !run.Finished() {
		t.Fatalf("unexpected run %+v", run)
	}
	files, err := store.RunFiles(context.Background(), summary.RunID)
	if err != nil || len(files) != 2 {
		t.Fatalf("RunFiles = %d, err %v", len(files), err)
	}
}

type doneProcessor struct{}

func (doneProcessor) Process(_ context.Context, path string) pipeline.Outcome {
	return pipeline.Outcome{Path: path, State: pipeline.StateDone}
}

func (doneProcessor) TargetArtifact(path string) string {
	return path + ".zh.srt"
}
