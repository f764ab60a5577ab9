package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"vidsub/internal/language"
	"vidsub/internal/logging"
)

// Chain tries providers in order until one returns non-empty text.
type Chain struct {
	target    string
	providers []Provider
	logger    *slog.Logger
}

// ChainOption customizes a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger used for attempt and exhaustion reporting.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChain builds a chain translating into target. The target is normalized
// once here; providers receive the normalized code.
func NewChain(target string, providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		target:    language.Normalize(target),
		providers: append([]Provider(nil), providers...),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "translation")
	return c
}

// Target returns the normalized target code.
func (c *Chain) Target() string {
	return c.target
}

// ProviderNames returns provider names in fallback order.
func (c *Chain) ProviderNames() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Translate returns the first successful translation of text, or text itself
// when every provider fails. Source is normalized before use.
func (c *Chain) Translate(ctx context.Context, text, source string) string {
	result, _ := c.Attempts(ctx, text, source)
	return result
}

// Attempts is Translate plus the record of every provider invocation.
func (c *Chain) Attempts(ctx context.Context, text, source string) (string, []Attempt) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	logger := logging.WithContext(ctx, c.logger)
	normalized := language.Normalize(source)

	attempts := make([]Attempt, 0, len(c.providers))
	for _, provider := range c.providers {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Provider: provider.Name(), Err: fmt.Errorf("%w: %s: %w", ErrProviderFailed, provider.Name(), err)})
			break
		}
		resolved := provider.Capability().Resolve(normalized)
		attempt := Attempt{Provider: provider.Name(), Source: resolved}

		out, err := provider.Translate(ctx, text, resolved, c.target)
		switch {
		case err != nil:
			attempt.Err = fmt.Errorf("%w: %s: %w", ErrProviderFailed, provider.Name(), err)
		case strings.TrimSpace(out) == "":
			attempt.Err = fmt.Errorf("%w: %s: empty result", ErrProviderFailed, provider.Name())
		default:
			attempt.Text = strings.TrimSpace(out)
		}
		attempts = append(attempts, attempt)

		if attempt.Succeeded() {
			logger.Debug("translation succeeded",
				logging.String("provider", provider.Name()),
				logging.String("source", resolved),
				logging.String("target", c.target),
			)
			return attempt.Text, attempts
		}
		logger.Debug("translation provider failed",
			logging.String(logging.FieldEventType, "translation_provider_failed"),
			logging.String("provider", provider.Name()),
			logging.String("source", resolved),
			logging.Error(attempt.Err),
		)
	}

	if ctx.Err() != nil {
		return text, attempts
	}
	logging.WarnWithContext(logger, "all translation providers failed; keeping original text", "translation_exhausted",
		logging.Int("providers", len(c.providers)),
		logging.String("text", snippet(text)),
		logging.String(logging.FieldErrorHint, "check network access or reorder translation.providers"),
		logging.String(logging.FieldImpact, "segment keeps its original text"),
	)
	return text, attempts
}

// Exhausted reports whether an attempt record contains no success.
func Exhausted(attempts []Attempt) bool {
	for _, a := range attempts {
		if a.Succeeded() {
			return false
		}
	}
	return len(attempts) > 0
}

// ExhaustedError summarizes failed attempts as an error wrapping ErrExhausted.
func ExhaustedError(attempts []Attempt) error {
	if !Exhausted(attempts) {
		return nil
	}
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, a.Err.Error())
	}
	return fmt.Errorf("%w: %s", ErrExhausted, strings.Join(parts, "; "))
}

func snippet(text string) string {
	const limit = 30
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
