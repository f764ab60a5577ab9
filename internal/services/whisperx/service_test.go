package whisperx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"vidsub/internal/media/ffprobe"
	"vidsub/internal/services"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(t *testing.T, payload string, calls *[]recordedCall) func(context.Context, string, ...string) error {
	t.Helper()
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, recordedCall{name: name, args: append([]string(nil), args...)})
		switch name {
		case UVXCommand:
			outputDir := argValue(args, "--output_dir")
			source := args[slices.Index(args, "whisperx")+1]
			base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
			return os.WriteFile(filepath.Join(outputDir, base+".json"), []byte(payload), 0o644)
		default:
			dest := args[len(args)-1]
			return os.WriteFile(dest, []byte("RIFF"), 0o644)
		}
	}
}

func argValue(args []string, flag string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestRecognizeParsesLanguageAndSegments(t *testing.T) {
	var calls []recordedCall
	svc := NewService(Config{Model: "small"}, "/opt/ffmpeg")
	svc.WithTempDir(t.TempDir())
	svc.WithCommandRunner(fakeRunner(t, `{"language":"en","segments":[
		{"start":0.5,"end":2.0,"text":" Hello there."},
		{"start":2.5,"end":3.0,"text":"   "},
		{"start":3.0,"end":4.25,"text":"General Kenobi."}
	]}`, &calls))

	got, err := svc.Recognize(context.Background(), "/media/movie.mkv")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got.Language != "en" {
		t.Fatalf("language = %q, want en", got.Language)
	}
	if len(got.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(got.Segments))
	}
	if got.Segments[1].Start != 3.0 || got.Segments[1].End != 4.25 || got.Segments[1].Text != "General Kenobi." {
		t.Fatalf("unexpected segment %+v", got.Segments[1])
	}

	if len(calls) != 2 {
		t.Fatalf("expected ffmpeg and uvx calls, got %d", len(calls))
	}
	if calls[0].name != "/opt/ffmpeg" || argValue(calls[0].args, "-map") != "0:a:0" {
		t.Fatalf("unexpected ffmpeg call %+v", calls[0])
	}
	if argValue(calls[1].args, "--model") != "small" {
		t.Fatalf("model flag missing: %v", calls[1].args)
	}
	if slices.Contains(calls[1].args, "--language") {
		t.Fatalf("language must be auto-detected, got %v", calls[1].args)
	}
}

func TestRecognizeRemovesWorkDir(t *testing.T) {
	var calls []recordedCall
	tmp := t.TempDir()
	svc := NewService(Config{}, "")
	svc.WithTempDir(tmp)
	svc.WithCommandRunner(fakeRunner(t, `{"segments":[]}`, &calls))

	got, err := svc.Recognize(context.Background(), "clip.mp4")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got.Language != UndeterminedLanguage {
		t.Fatalf("language = %q, want %q", got.Language, UndeterminedLanguage)
	}
	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir not cleaned up: %v", entries)
	}
}

func TestRecognizeClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		marker error
	}{
		{name: "missing binary", err: exec.ErrNotFound, marker: services.ErrNotFound},
		{name: "command failure", err: errors.New("exit status 1"), marker: services.ErrExternalTool},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(Config{}, "")
			svc.WithTempDir(t.TempDir())
			svc.WithCommandRunner(func(context.Context, string, ...string) error { return tc.err })
			_, err := svc.Recognize(context.Background(), "movie.mkv")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestRecognizeMalformedOutput(t *testing.T) {
	var calls []recordedCall
	svc := NewService(Config{}, "")
	svc.WithTempDir(t.TempDir())
	svc.WithCommandRunner(fakeRunner(t, `not json`, &calls))
	_, err := svc.Recognize(context.Background(), "movie.mkv")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestRecognizeRequiresPath(t *testing.T) {
	svc := NewService(Config{}, "")
	if _, err := svc.Recognize(context.Background(), " "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		language string
		want     []string
		absent   []string
	}{
		{
			name:   "cpu silero",
			cfg:    Config{},
			want:   []string{"--device", CPUDevice, "--compute_type", CPUComputeType, "--vad_method", VADMethodSilero},
			absent: []string{"--hf_token", "--language", CUDAIndexURL},
		},
		{
			name:     "cuda pyannote",
			cfg:      Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_x"},
			language: "ger",
			want:     []string{CUDAIndexURL, "--device", CUDADevice, "--hf_token", "hf_x", "--language", "de"},
			absent:   []string{"--compute_type"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(tc.cfg, "")
			args := svc.buildArgs("/tmp/audio.wav", "/tmp/out", tc.language)
			for _, w := range tc.want {
				if !slices.Contains(args, w) {
					t.Errorf("missing %q in %v", w, args)
				}
			}
			for _, a := range tc.absent {
				if slices.Contains(args, a) {
					t.Errorf("unexpected %q in %v", a, args)
				}
			}
			if argValue(args, "--model") != DefaultModel {
				t.Errorf("model = %q, want %q", argValue(args, "--model"), DefaultModel)
			}
		})
	}
}

func TestBuildFFmpegExtractArgsRejectsNegativeIndex(t *testing.T) {
	if _, err := buildFFmpegExtractArgs("in.mkv", -1, "out.wav"); err == nil {
		t.Fatal("expected error for negative index")
	}
}

func TestRecognizeRejectsFilesWithoutAudio(t *testing.T) {
	svc := NewService(Config{}, "")
	svc.WithTempDir(t.TempDir())
	svc.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("no command should run without audio")
		return nil
	})
	svc.WithProbe(func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}, nil
	})
	if _, err := svc.Recognize(context.Background(), "silent.mp4"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
