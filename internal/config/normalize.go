package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSubtitles()
	c.normalizeWhisperX()
	c.normalizeTranslation()
	c.normalizeLLM()
	c.normalizeLogging()
	c.normalizeThumbnails()
	if c.Watch.SettleSeconds <= 0 {
		c.Watch.SettleSeconds = defaultWatchSettleSeconds
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSubtitles() {
	if value, ok := os.LookupEnv("VIDSUB_TARGET_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		c.Subtitles.TargetLanguage = value
	}
	c.Subtitles.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Subtitles.TargetLanguage))
	if c.Subtitles.TargetLanguage == "" {
		c.Subtitles.TargetLanguage = defaultTargetLanguage
	}
	c.Subtitles.Extensions = NormalizeExtensions(c.Subtitles.Extensions)
}

// NormalizeExtensions lower-cases extensions, adds a leading dot, and drops
// blanks and duplicates. An empty result falls back to DefaultExtensions.
func NormalizeExtensions(values []string) []string {
	exts := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, exists := seen[ext]; exists {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return exts
}

func (c *Config) normalizeWhisperX() {
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultWhisperXVADMethod
	}
	c.WhisperX.HFToken = strings.TrimSpace(c.WhisperX.HFToken)
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
	c.WhisperX.FFmpegBinary = strings.TrimSpace(c.WhisperX.FFmpegBinary)
	if c.WhisperX.FFmpegBinary == "" {
		c.WhisperX.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Providers = normalizeProviders(c.Translation.Providers)
	if c.Translation.Workers <= 0 {
		c.Translation.Workers = defaultTranslationWorkers
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeout
	}
	c.Translation.GoogleBaseURL = strings.TrimSpace(c.Translation.GoogleBaseURL)
	if c.Translation.GoogleBaseURL == "" {
		c.Translation.GoogleBaseURL = defaultGoogleBaseURL
	}
	c.Translation.LingueeBaseURL = strings.TrimRight(strings.TrimSpace(c.Translation.LingueeBaseURL), "/")
	if c.Translation.LingueeBaseURL == "" {
		c.Translation.LingueeBaseURL = defaultLingueeBaseURL
	}
	c.Translation.PonsBaseURL = strings.TrimRight(strings.TrimSpace(c.Translation.PonsBaseURL), "/")
	if c.Translation.PonsBaseURL == "" {
		c.Translation.PonsBaseURL = defaultPonsBaseURL
	}
}

func normalizeProviders(values []string) []string {
	providers := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		name := strings.ToLower(strings.TrimSpace(value))
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		providers = append(providers, name)
	}
	if len(providers) == 0 {
		return append([]string(nil), DefaultProviders...)
	}
	return providers
}

// ParseProviders splits a comma-separated provider list using the same rules
// applied to the config file.
func ParseProviders(raw string) []string {
	return normalizeProviders(strings.Split(raw, ","))
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeThumbnails() {
	if c.Thumbnails.Count <= 0 {
		c.Thumbnails.Count = defaultThumbnailCount
	}
	if c.Thumbnails.MarginRatio < 0 {
		c.Thumbnails.MarginRatio = defaultThumbnailMarginRatio
	}
}
