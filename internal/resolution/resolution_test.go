package resolution_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidsub/internal/batch"
	"vidsub/internal/media/ffprobe"
	"vidsub/internal/resolution"
	"vidsub/internal/testsupport"
)

func TestCategoryBoundaries(t *testing.T) {
	tests := []struct {
		width, height int
		want          string
	}{
		{320, 240, "360"},
		{240, 100, "240"},
		{241, 100, "360"},
		{100, 360, "360"},
		{480, 270, "480"},
		{560, 315, "560"},
		{561, 315, "720"},
		{1280, 720, "1080"},
		{720, 1280, "1080"},
		{1920, 1080, "1080"},
		{1921, 1080, "2160"},
		{3840, 2160, "2160"},
		{4320, 2160, "4320"},
		{7680, 4320, ""},
		{0, 0, "240"},
	}
	for _, tc := range tests {
		if got := resolution.Category(tc.width, tc.height); got != tc.want {
			t.Errorf("Category(%d, %d) = %q, want %q", tc.width, tc.height, got, tc.want)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	tests := map[string]bool{
		"1080px_movie.mp4": true,
		"240px_a.mkv":      true,
		"1080p_movie.mp4":  false,
		"999px_movie.mp4":  false,
		"movie.mp4":        false,
	}
	for name, want := range tests {
		if got := resolution.HasPrefix(name); got != want {
			t.Errorf("HasPrefix(%q) = %v, want %v", name, got, want)
		}
	}
}

func fakeProbe(dims map[string][2]int) resolution.ProbeFunc {
	return func(_ context.Context, path string) (ffprobe.Result, error) {
		d, ok := dims[filepath.Base(path)]
		if !ok {
			return ffprobe.Result{}, errors.New("unreadable")
		}
		return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video", Width: d[0], Height: d[1]}}}, nil
	}
}

func TestRunRenamesAndCounts(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFiles(t, root,
		"hd.mp4",
		"sub/sd.mkv",
		"720px_done.mp4",
		"huge.mov",
		"broken.avi",
		"taken.mp4",
		"1080px_taken.mp4",
		"readme.txt",
	)
	probe := fakeProbe(map[string][2]int{
		"hd.mp4":    {1920, 1080},
		"sd.mkv":    {640, 480},
		"huge.mov":  {7680, 4320},
		"taken.mp4": {1920, 1080},
	})

	summary, err := resolution.NewRenamer(probe).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := resolution.Summary{Total: 7, Renamed: 2, Skipped: 4, Errors: 1}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
	for _, name := range []string{"1080px_hd.mp4", filepath.Join("sub", "720px_sd.mkv")} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "taken.mp4")); err != nil {
		t.Errorf("taken.mp4 should be left alone: %v", err)
	}
}

func TestRunDryRunLeavesFiles(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFiles(t, root, "hd.mp4")
	probe := fakeProbe(map[string][2]int{"hd.mp4": {1280, 720}})

	summary, err := resolution.NewRenamer(probe, resolution.WithDryRun(true)).Run(context.Background(), root)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Renamed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(root, "hd.mp4")); err != nil {
		t.Fatalf("dry run must not rename: %v", err)
	}
}

func TestRunInvalidRoot(t *testing.T) {
	_, err := resolution.NewRenamer(fakeProbe(nil)).Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, batch.ErrDirectoryInvalid) {
		t.Fatalf("err = %v, want ErrDirectoryInvalid", err)
	}
}
