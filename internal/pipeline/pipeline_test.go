package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"vidsub/internal/pipeline"
	"vidsub/internal/transcript"
	"vidsub/internal/translation"
)

type fakeRecognizer struct {
	result transcript.Transcript
	err    error
	calls  atomic.Int32
}

func (f *fakeRecognizer) Recognize(context.Context, string) (transcript.Transcript, error) {
	f.calls.Add(1)
	return f.result.Clone(), f.err
}

type countingProvider struct {
	calls atomic.Int32
}

func (p *countingProvider) Name() string                       { return "fake" }
func (p *countingProvider) Capability() translation.Capability { return translation.Capability{} }
func (p *countingProvider) Translate(_ context.Context, text, _, target string) (string, error) {
	p.calls.Add(1)
	return target + ":" + text, nil
}

func englishTranscript() transcript.Transcript {
	return transcript.Transcript{
		Language: "en",
		Segments: []transcript.Segment{
			{Start: 0, End: 1.5, Text: " Hello"},
			{Start: 2, End: 3.25, Text: "World"},
		},
	}
}

func newTranslator(provider translation.Provider, target string) *translation.SegmentTranslator {
	return translation.NewSegmentTranslator(translation.NewChain(target, []translation.Provider{provider}))
}

func writeMedia(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestProcessWritesOriginalAndTranslatedArtifacts(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "movie.mkv")
	provider := &countingProvider{}
	p := pipeline.New(&fakeRecognizer{result: englishTranscript()}, newTranslator(provider, "zh"), pipeline.WithTarget("zh"))

	outcome := p.Process(context.Background(), media)

	if outcome.State != pipeline.StateDone {
		t.Fatalf("state = %s, err = %v", outcome.State, outcome.Err)
	}
	if outcome.DetectedLanguage != "en" || !outcome.Translated {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	wantStates := []pipeline.State{
		pipeline.StateRecognizing, pipeline.StateTranslating, pipeline.StateSerializing,
		pipeline.StateWriting, pipeline.StateDone,
	}
	if !slices.Equal(outcome.States, wantStates) {
		t.Fatalf("states = %v, want %v", outcome.States, wantStates)
	}

	original := readFile(t, filepath.Join(dir, "movie.en.srt"))
	wantOriginal := "1\n00:00:00,000 --> 00:00:01,500\nHello\n\n2\n00:00:02,000 --> 00:00:03,250\nWorld\n\n"
	if original != wantOriginal {
		t.Fatalf("original artifact:\n%q\nwant\n%q", original, wantOriginal)
	}
	translated := readFile(t, filepath.Join(dir, "movie.zh.srt"))
	if !strings.Contains(translated, "00:00:02,000 --> 00:00:03,250\n") || strings.Contains(translated, "\nWorld\n") {
		t.Fatalf("translated artifact not translated or mistimed:\n%s", translated)
	}
	if got := provider.calls.Load(); got != 2 {
		t.Fatalf("provider calls = %d, want 2", got)
	}
	if len(outcome.WrittenPaths()) != 2 {
		t.Fatalf("written = %v", outcome.WrittenPaths())
	}
}

func TestProcessSameLanguageWritesSingleArtifact(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "clip.mp4")
	result := englishTranscript()
	result.Language = "zh"
	provider := &countingProvider{}
	p := pipeline.New(&fakeRecognizer{result: result}, newTranslator(provider, "zh"), pipeline.WithTarget("zh"))

	outcome := p.Process(context.Background(), media)

	if outcome.State != pipeline.StateDone {
		t.Fatalf("state = %s, err = %v", outcome.State, outcome.Err)
	}
	if outcome.Translated || provider.calls.Load() != 0 {
		t.Fatalf("translation should be skipped, calls = %d", provider.calls.Load())
	}
	if slices.Contains(outcome.States, pipeline.StateTranslating) {
		t.Fatalf("unexpected translating state in %v", outcome.States)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var srts []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".srt") {
			srts = append(srts, e.Name())
		}
	}
	if !slices.Equal(srts, []string{"clip.zh.srt"}) {
		t.Fatalf("artifacts = %v, want [clip.zh.srt]", srts)
	}
}

func TestProcessTranslatedArtifactMirrorsOriginalCues(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "talk.mp4")
	result := transcript.Transcript{
		Language: "en",
		Segments: []transcript.Segment{
			{Start: 0, End: 1.2, Text: "One"},
			{Start: 1.5, End: 2.75, Text: "Two"},
			{Start: 61, End: 3725.5, Text: "Three"},
		},
	}
	p := pipeline.New(&fakeRecognizer{result: result}, newTranslator(&countingProvider{}, "ja"), pipeline.WithTarget("ja"))

	outcome := p.Process(context.Background(), media)
	if outcome.State != pipeline.StateDone {
		t.Fatalf("state = %s, err = %v", outcome.State, outcome.Err)
	}

	wantOriginal := "1\n00:00:00,000 --> 00:00:01,200\nOne\n\n" +
		"2\n00:00:01,500 --> 00:00:02,750\nTwo\n\n" +
		"3\n00:01:01,000 --> 01:02:05,500\nThree\n\n"
	if got := readFile(t, filepath.Join(dir, "talk.en.srt")); got != wantOriginal {
		t.Fatalf("original artifact:\n%q\nwant\n%q", got, wantOriginal)
	}
	wantTranslated := "1\n00:00:00,000 --> 00:00:01,200\nja:One\n\n" +
		"2\n00:00:01,500 --> 00:00:02,750\nja:Two\n\n" +
		"3\n00:01:01,000 --> 01:02:05,500\nja:Three\n\n"
	if got := readFile(t, filepath.Join(dir, "talk.ja.srt")); got != wantTranslated {
		t.Fatalf("translated artifact:\n%q\nwant\n%q", got, wantTranslated)
	}
}

func TestProcessEquivalentTagNamesArtifactAfterTarget(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "clip.mp4")
	result := englishTranscript()
	result.Language = "zh"
	provider := &countingProvider{}
	p := pipeline.New(&fakeRecognizer{result: result}, newTranslator(provider, "zh-CN"), pipeline.WithTarget("zh-CN"))

	outcome := p.Process(context.Background(), media)

	if outcome.State != pipeline.StateDone || outcome.Translated || provider.calls.Load() != 0 {
		t.Fatalf("unexpected outcome %+v (calls %d)", outcome, provider.calls.Load())
	}
	if outcome.DetectedLanguage != "zh" {
		t.Fatalf("detected language = %q, want zh", outcome.DetectedLanguage)
	}
	written := outcome.WrittenPaths()
	if len(written) != 1 || written[0] != p.TargetArtifact(media) {
		t.Fatalf("written = %v, want [%s]", written, p.TargetArtifact(media))
	}
	if _, err := os.Stat(p.TargetArtifact(media)); err != nil {
		t.Fatalf("target artifact missing: %v", err)
	}
}

func TestProcessRecognitionFailure(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "broken.avi")
	p := pipeline.New(&fakeRecognizer{err: errors.New("decoder exploded")}, newTranslator(&countingProvider{}, "zh"))

	outcome := p.Process(context.Background(), media)

	if outcome.State != pipeline.StateFailed {
		t.Fatalf("state = %s", outcome.State)
	}
	if !errors.Is(outcome.Err, pipeline.ErrRecognitionFailed) {
		t.Fatalf("err = %v, want ErrRecognitionFailed", outcome.Err)
	}
	if len(outcome.Artifacts) != 0 {
		t.Fatalf("unexpected artifacts %+v", outcome.Artifacts)
	}
}

func TestProcessWriteFailureKeepsSibling(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "movie.mkv")
	failing := func(path string, data []byte, perm os.FileMode) error {
		if strings.HasSuffix(path, ".zh.srt") {
			return errors.New("disk full")
		}
		return os.WriteFile(path, data, perm)
	}
	p := pipeline.New(&fakeRecognizer{result: englishTranscript()}, newTranslator(&countingProvider{}, "zh"),
		pipeline.WithTarget("zh"), pipeline.WithWriteFunc(failing))

	outcome := p.Process(context.Background(), media)

	if outcome.State != pipeline.StatePartial {
		t.Fatalf("state = %s, err = %v", outcome.State, outcome.Err)
	}
	if !errors.Is(outcome.Err, pipeline.ErrWriteFailed) {
		t.Fatalf("err = %v, want ErrWriteFailed", outcome.Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "movie.en.srt")); err != nil {
		t.Fatalf("original artifact should survive: %v", err)
	}
	if !errors.Is(outcome.Artifacts[1].Err, pipeline.ErrWriteFailed) || outcome.Artifacts[1].Written {
		t.Fatalf("translated artifact = %+v", outcome.Artifacts[1])
	}
}

func TestProcessAllWritesFailed(t *testing.T) {
	media := writeMedia(t, t.TempDir(), "movie.mkv")
	p := pipeline.New(&fakeRecognizer{result: englishTranscript()}, newTranslator(&countingProvider{}, "zh"),
		pipeline.WithWriteFunc(func(string, []byte, os.FileMode) error { return errors.New("read-only") }))

	outcome := p.Process(context.Background(), media)

	if outcome.State != pipeline.StateFailed || !errors.Is(outcome.Err, pipeline.ErrWriteFailed) {
		t.Fatalf("state = %s, err = %v", outcome.State, outcome.Err)
	}
}

func TestProcessCancellationRemovesWrittenArtifacts(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "movie.mkv")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelAfterFirst := func(path string, data []byte, perm os.FileMode) error {
		err := os.WriteFile(path, data, perm)
		cancel()
		return err
	}
	p := pipeline.New(&fakeRecognizer{result: englishTranscript()}, newTranslator(&countingProvider{}, "zh"),
		pipeline.WithTarget("zh"), pipeline.WithWriteFunc(cancelAfterFirst))

	outcome := p.Process(ctx, media)

	if outcome.State != pipeline.StateFailed {
		t.Fatalf("state = %s", outcome.State)
	}
	if !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", outcome.Err)
	}
	for _, name := range []string{"movie.en.srt", "movie.zh.srt"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist after cancellation: %v", name, err)
		}
	}
	if len(outcome.WrittenPaths()) != 0 {
		t.Fatalf("written = %v", outcome.WrittenPaths())
	}
}

func TestProcessCancelledBeforeStart(t *testing.T) {
	rec := &fakeRecognizer{result: englishTranscript()}
	p := pipeline.New(rec, newTranslator(&countingProvider{}, "zh"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := p.Process(ctx, filepath.Join(t.TempDir(), "movie.mkv"))

	if outcome.State != pipeline.StateFailed || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("state = %s, err = %v", outcome.State, outcome.Err)
	}
	if rec.calls.Load() != 0 {
		t.Fatal("recognizer should not run after cancellation")
	}
}

func TestProcessEmptyTranscriptWritesEmptyArtifact(t *testing.T) {
	dir := t.TempDir()
	media := writeMedia(t, dir, "silent.webm")
	p := pipeline.New(&fakeRecognizer{result: transcript.Transcript{Language: "zh"}}, newTranslator(&countingProvider{}, "zh"))

	outcome := p.Process(context.Background(), media)

	if outcome.State != pipeline.StateDone {
		t.Fatalf("state = %s, err = %v", outcome.State, outcome.Err)
	}
	if got := readFile(t, filepath.Join(dir, "silent.zh.srt")); got != "" {
		t.Fatalf("expected empty artifact, got %q", got)
	}
}

func TestArtifactPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "videos")
	out := filepath.Join(string(filepath.Separator), "subs")
	tests := []struct {
		name  string
		opts  []pipeline.Option
		media string
		tag   string
		want  string
	}{
		{
			name:  "beside media",
			media: filepath.Join(root, "show", "ep1.mkv"),
			tag:   "en",
			want:  filepath.Join(root, "show", "ep1.en.srt"),
		},
		{
			name:  "output dir keeps layout",
			opts:  []pipeline.Option{pipeline.WithOutputDir(out, root)},
			media: filepath.Join(root, "show", "s01", "ep1.mkv"),
			tag:   "zh-TW",
			want:  filepath.Join(out, "show", "s01", "ep1.zh-TW.srt"),
		},
		{
			name:  "media outside root goes flat",
			opts:  []pipeline.Option{pipeline.WithOutputDir(out, root)},
			media: filepath.Join(string(filepath.Separator), "elsewhere", "clip.mp4"),
			tag:   "fr",
			want:  filepath.Join(out, "clip.fr.srt"),
		},
		{
			name:  "underscore tag and empty tag",
			media: filepath.Join(root, "a.b.mp4"),
			tag:   "pt_BR",
			want:  filepath.Join(root, "a.b.pt-BR.srt"),
		},
		{
			name:  "empty tag",
			media: filepath.Join(root, "a.mp4"),
			tag:   " ",
			want:  filepath.Join(root, "a.und.srt"),
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := pipeline.New(nil, nil, tc.opts...)
			if got := p.ArtifactPath(tc.media, tc.tag); got != tc.want {
				t.Fatalf("ArtifactPath = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to pipeline.State
		want     bool
	}{
		{pipeline.StateRecognizing, pipeline.StateTranslating, true},
		{pipeline.StateRecognizing, pipeline.StateSerializing, true},
		{pipeline.StateWriting, pipeline.StatePartial, true},
		{pipeline.StateTranslating, pipeline.StateWriting, false},
		{pipeline.StateDone, pipeline.StateFailed, false},
	}
	for _, tc := range tests {
		if got := pipeline.CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
	if !pipeline.StatePartial.Terminal() || pipeline.StateWriting.Terminal() {
		t.Fatal("terminal classification wrong")
	}
}
