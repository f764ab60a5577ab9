package whisperx

// Config selects the model and hardware used for recognition.
type Config struct {
	Model       string // "medium" when empty
	CUDAEnabled bool
	VADMethod   string // VADMethodSilero or VADMethodPyannote
	HFToken     string // required by pyannote
}

const (
	DefaultModel         = "medium"
	UndeterminedLanguage = "und"

	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"

	CPUDevice      = "cpu"
	CPUComputeType = "float32"
	CUDADevice     = "cuda"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"

	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)

// decodeFlags are passed on every run. Sentence-level segments in JSON are
// what the transcript loader reads; the decoding values favour accuracy on
// dialogue over speed.
var decodeFlags = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "10",
	"--best_of", "10",
	"--temperature", "0.0",
	"--patience", "1.0",
}
