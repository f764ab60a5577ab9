package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	langpkg "vidsub/internal/language"
	"vidsub/internal/media/ffprobe"
	"vidsub/internal/services"
	"vidsub/internal/transcript"
)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
	probe         func(ctx context.Context, path string) (ffprobe.Result, error)
	tempDir       string
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config, ffmpegBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		cfg:          cfg,
		ffmpegBinary: ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// WithProbe checks media files for an audio stream before extraction.
func (s *Service) WithProbe(probe func(ctx context.Context, path string) (ffprobe.Result, error)) {
	s.probe = probe
}

// WithTempDir sets the parent directory for per-file work directories.
// The system temp directory is used when unset.
func (s *Service) WithTempDir(dir string) {
	s.tempDir = dir
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// ExtractFullAudio extracts an audio stream using the service's command runner if configured.
func (s *Service) ExtractFullAudio(ctx context.Context, source string, audioIndex int, dest string) error {
	if s.commandRunner != nil {
		args, err := buildFFmpegExtractArgs(source, audioIndex, dest)
		if err != nil {
			return err
		}
		return s.commandRunner(ctx, s.ffmpegBinary, args...)
	}
	return ExtractFullAudio(ctx, s.ffmpegBinary, source, audioIndex, dest)
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	// Force legacy behavior so bundled WhisperX binaries can load checkpoints safely.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Recognize extracts the first audio stream of mediaPath, runs WhisperX with
// language auto-detection, and returns the detected language and segments.
// Work files live in a temporary directory removed before returning.
func (s *Service) Recognize(ctx context.Context, mediaPath string) (transcript.Transcript, error) {
	var empty transcript.Transcript
	if strings.TrimSpace(mediaPath) == "" {
		return empty, services.Wrap(services.ErrValidation, "whisperx", "recognize", "media path required", nil)
	}
	if s.probe != nil {
		info, err := s.probe(ctx, mediaPath)
		if err != nil {
			return empty, wrapCommandError(ctx, "probe", err)
		}
		if info.AudioStreamCount() == 0 {
			return empty, services.Wrap(services.ErrValidation, "whisperx", "probe", "no audio stream", nil)
		}
	}
	workDir, err := os.MkdirTemp(s.tempDir, "vidsub-whisperx-*")
	if err != nil {
		return empty, fmt.Errorf("whisperx: create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, "audio.wav")
	if err := s.ExtractFullAudio(ctx, mediaPath, 0, audioPath); err != nil {
		return empty, wrapCommandError(ctx, "extract audio", err)
	}

	result, err := s.TranscribeFile(ctx, audioPath, workDir, "")
	if err != nil {
		return empty, wrapCommandError(ctx, "transcribe", err)
	}
	t, err := LoadTranscript(result.JSONPath)
	if err != nil {
		return empty, services.Wrap(services.ErrExternalTool, "whisperx", "parse output", "unreadable transcript", err)
	}
	return t, nil
}

func wrapCommandError(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("whisperx %s: %w", operation, ctxErr)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrNotFound, "whisperx", operation, "required binary not installed", err)
	}
	return services.Wrap(services.ErrExternalTool, "whisperx", operation, "command failed", err)
}

// TranscribeResult contains the result of a transcription.
type TranscribeResult struct {
	// JSONPath is the path to the generated JSON file.
	JSONPath string
}

// TranscribeFile transcribes an audio file into outputDir. An empty language
// lets WhisperX detect it.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir, language string) (TranscribeResult, error) {
	var result TranscribeResult

	if source == "" {
		return result, fmt.Errorf("transcribe: source path required")
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	args := s.buildArgs(source, outputDir, language)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		return result, fmt.Errorf("whisperx: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	result.JSONPath = filepath.Join(outputDir, baseName+".json")
	return result, nil
}

// buildArgs assembles the uvx invocation for one transcription.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	var args []string
	if s.cfg.CUDAEnabled {
		args = append(args, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args, "whisperx", source, "--model", s.Model(), "--output_dir", outputDir)
	args = append(args, decodeFlags...)

	vad := s.cfg.VADMethod
	if vad == "" {
		vad = VADMethodSilero
	}
	args = append(args, "--vad_method", vad)
	if vad == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		return append(args, "--device", CUDADevice)
	}
	return append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// whisperXPayload is the JSON structure from WhisperX output.
type whisperXPayload struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// LoadTranscript loads a WhisperX JSON file. Segments without text are
// dropped and a missing language is reported as UndeterminedLanguage.
func LoadTranscript(jsonPath string) (transcript.Transcript, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return transcript.Transcript{}, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return transcript.Transcript{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	out := transcript.Transcript{
		Language: strings.ToLower(strings.TrimSpace(payload.Language)),
		Segments: make([]transcript.Segment, 0, len(payload.Segments)),
	}
	if out.Language == "" {
		out.Language = UndeterminedLanguage
	}
	for _, seg := range payload.Segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		start := max(seg.Start, 0)
		out.Segments = append(out.Segments, transcript.Segment{
			Start: start,
			End:   max(seg.End, start),
			Text:  seg.Text,
		})
	}
	return out, nil
}
