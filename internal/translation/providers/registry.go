package providers

import (
	"fmt"
	"net/http"
	"time"

	"vidsub/internal/config"
	"vidsub/internal/services"
	"vidsub/internal/services/llm"
	"vidsub/internal/translation"
)

// FromConfig builds the named providers in order. When names is empty the
// configured translation.providers list is used. All HTTP providers share one
// client honouring translation.timeout_seconds.
func FromConfig(cfg *config.Config, names []string) ([]translation.Provider, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "providers", "build", "config required", nil)
	}
	if len(names) == 0 {
		names = cfg.Translation.Providers
	}
	client := &http.Client{Timeout: time.Duration(cfg.Translation.TimeoutSeconds) * time.Second}

	out := make([]translation.Provider, 0, len(names))
	for _, name := range names {
		switch name {
		case "google":
			out = append(out, NewGoogle(cfg.Translation.GoogleBaseURL, client))
		case "linguee":
			out = append(out, NewLinguee(cfg.Translation.LingueeBaseURL, client))
		case "pons":
			out = append(out, NewPons(cfg.Translation.PonsBaseURL, client))
		case "llm":
			llmCfg := cfg.GetLLM()
			if llmCfg.APIKey == "" {
				return nil, services.Wrap(services.ErrConfiguration, "providers", "build llm", "llm.api_key is required for the llm provider", nil)
			}
			out = append(out, NewLLM(llm.NewClient(llm.Config{
				APIKey:         llmCfg.APIKey,
				BaseURL:        llmCfg.BaseURL,
				Model:          llmCfg.Model,
				Referer:        llmCfg.Referer,
				Title:          llmCfg.Title,
				TimeoutSeconds: llmCfg.TimeoutSeconds,
			})))
		default:
			return nil, services.Wrap(services.ErrConfiguration, "providers", "build", fmt.Sprintf("unknown provider %q", name), nil)
		}
	}
	if len(out) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "providers", "build", "no translation providers configured", nil)
	}
	return out, nil
}
