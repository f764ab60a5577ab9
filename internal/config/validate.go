package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"vidsub/internal/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if language.Normalize(c.Subtitles.TargetLanguage) == language.Auto {
		return fmt.Errorf("subtitles.target_language %q is not a supported language", c.Subtitles.TargetLanguage)
	}
	if len(c.Subtitles.Extensions) == 0 {
		return errors.New("subtitles.extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if len(c.Translation.Providers) == 0 {
		return errors.New("translation.providers must include at least one provider")
	}
	for _, name := range c.Translation.Providers {
		if !slices.Contains(KnownProviders, name) {
			return fmt.Errorf("translation.providers: unknown provider %q (known: %s)", name, strings.Join(KnownProviders, ", "))
		}
	}
	if slices.Contains(c.Translation.Providers, "llm") && strings.TrimSpace(c.LLM.APIKey) == "" {
		return errors.New("llm.api_key must be set when translation.providers includes llm (or set LLM_API_KEY / OPENROUTER_API_KEY)")
	}
	if c.Translation.Workers > maxTranslationWorkers {
		return fmt.Errorf("translation.workers must be between 1 and %d", maxTranslationWorkers)
	}
	return ensurePositiveMap(map[string]int{
		"translation.workers":         c.Translation.Workers,
		"translation.timeout_seconds": c.Translation.TimeoutSeconds,
		"llm.timeout_seconds":         c.LLM.TimeoutSeconds,
		"watch.settle_seconds":        c.Watch.SettleSeconds,
	})
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("whisperx.vad_method %q must be silero or pyannote", c.WhisperX.VADMethod)
	}
	if c.WhisperX.VADMethod == "pyannote" && c.WhisperX.HFToken == "" {
		return errors.New("whisperx.hf_token must be set when whisperx.vad_method is pyannote (or set HF_TOKEN)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func (c *Config) validateThumbnails() error {
	if c.Thumbnails.MarginRatio >= maxThumbnailMarginRatioLimit {
		return fmt.Errorf("thumbnails.margin_ratio must be below %.1f", maxThumbnailMarginRatioLimit)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
