package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vidsub/internal/services"
)

const (
	defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout  = 15 * time.Second
	defaultAttempts = 5
	defaultBackoff  = time.Second
	defaultMaxWait  = 10 * time.Second
)

// Config holds the chat completion endpoint settings from the [llm] section.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	cfg    Config
	http   *http.Client
	policy retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets how many requests a single call may issue.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.policy.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the cap applied to every delay.
func WithRetryBackoff(base, limit time.Duration) Option {
	return func(c *Client) {
		c.policy.base = base
		c.policy.limit = limit
	}
}

// WithSleeper replaces the wait between attempts.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.policy.sleep = sleep }
}

// NewClient returns a client for cfg. An empty BaseURL selects OpenRouter.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		policy: retryPolicy{
			attempts: defaultAttempts,
			base:     defaultBackoff,
			limit:    defaultMaxWait,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Translate asks the model for a single subtitle line in target. A source of
// "auto" lets the model detect the language.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	text = strings.TrimSpace(text)
	target = strings.TrimSpace(target)
	switch {
	case text == "":
		return "", services.Wrap(services.ErrValidation, "llm", "translate", "text required", nil)
	case target == "":
		return "", services.Wrap(services.ErrValidation, "llm", "translate", "target language required", nil)
	}
	out, err := c.Complete(ctx, TranslationPrompt(source, target), text)
	if err != nil {
		return "", err
	}
	return cleanTranslation(out), nil
}

// Complete sends one system and one user message and returns the reply text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	system = strings.TrimSpace(system)
	user = strings.TrimSpace(user)
	if system == "" || user == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "complete", "system and user prompts required", nil)
	}
	return c.run(ctx, "complete", chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
}

// HealthCheck sends a tiny JSON-mode request to confirm the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	reply, err := c.run(ctx, "health", chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: `Respond with {"ok":true}`},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(stripCodeFenceBlock(reply)), &parsed); err != nil {
		return services.Wrap(services.ErrExternalTool, "llm", "health", "unparseable reply "+snippet(reply), err)
	}
	if !parsed.OK {
		return services.Wrap(services.ErrExternalTool, "llm", "health", "model did not acknowledge", nil)
	}
	return nil
}

func (c *Client) run(ctx context.Context, op string, req chatRequest) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "llm", op, "api key required", nil)
	}
	var reply string
	err := c.policy.do(ctx, func() error {
		var err error
		reply, err = c.post(ctx, op, req)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("llm %s: %w", op, err)
	}
	return reply, nil
}

// stripCodeFenceBlock unwraps a ``` or ```json fenced reply.
func stripCodeFenceBlock(content string) string {
	body, ok := strings.CutPrefix(strings.TrimSpace(content), "```")
	if !ok {
		return strings.TrimSpace(content)
	}
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func snippet(content string) string {
	clean := strings.Join(strings.Fields(content), " ")
	if clean == "" {
		return "<empty>"
	}
	const limit = 160
	if runes := []rune(clean); len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return clean
}

var errNoChoices = errors.New("response has no choices")
