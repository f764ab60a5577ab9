package config

const (
	defaultConfigPath            = "~/.config/vidsub/config.toml"
	defaultLogDir                = "~/.local/share/vidsub/logs"
	defaultStateDir              = "~/.local/share/vidsub"
	defaultTargetLanguage        = "zh"
	defaultWhisperXModel         = "medium"
	defaultWhisperXVADMethod     = "silero"
	defaultFFmpegBinary          = "ffmpeg"
	defaultTranslationWorkers    = 1
	defaultTranslationTimeout    = 30
	defaultGoogleBaseURL         = "https://translate.googleapis.com/translate_a/single"
	defaultLingueeBaseURL        = "https://www.linguee.com"
	defaultPonsBaseURL           = "https://en.pons.com/translate"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMTitle              = "vidsub"
	defaultLLMTimeoutSeconds     = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultThumbnailCount        = 4
	defaultThumbnailMarginRatio  = 0.05
	defaultWatchSettleSeconds    = 5
	defaultNtfyTimeoutSeconds    = 10
	maxTranslationWorkers        = 32
	maxThumbnailMarginRatioLimit = 0.5
)

// DefaultExtensions lists the media file extensions processed when none are configured.
var DefaultExtensions = []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"}

// DefaultProviders lists the translation providers in their default fallback order.
var DefaultProviders = []string{"google", "linguee", "pons"}

// KnownProviders lists every translation provider name the registry can build.
var KnownProviders = []string{"google", "linguee", "pons", "llm"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Subtitles: Subtitles{
			TargetLanguage: defaultTargetLanguage,
			Extensions:     append([]string(nil), DefaultExtensions...),
		},
		WhisperX: WhisperX{
			Model:        defaultWhisperXModel,
			VADMethod:    defaultWhisperXVADMethod,
			FFmpegBinary: defaultFFmpegBinary,
		},
		Translation: Translation{
			Providers:      append([]string(nil), DefaultProviders...),
			Workers:        defaultTranslationWorkers,
			TimeoutSeconds: defaultTranslationTimeout,
			GoogleBaseURL:  defaultGoogleBaseURL,
			LingueeBaseURL: defaultLingueeBaseURL,
			PonsBaseURL:    defaultPonsBaseURL,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Thumbnails: Thumbnails{
			Count:       defaultThumbnailCount,
			MarginRatio: defaultThumbnailMarginRatio,
		},
		Watch: Watch{
			SettleSeconds: defaultWatchSettleSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
	}
}
