package translation

import (
	"context"
	"errors"
	"slices"

	"vidsub/internal/language"
)

var (
	// ErrProviderFailed marks a single provider attempt that errored or
	// returned no text. The chain recovers from it by moving on.
	ErrProviderFailed = errors.New("translation provider failed")
	// ErrExhausted marks a chain run where every provider failed and the
	// original text was kept.
	ErrExhausted = errors.New("translation providers exhausted")
)

// Provider translates text between provider language codes (see
// language.Normalize). Implementations must be safe for concurrent use.
type Provider interface {
	Name() string
	Capability() Capability
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Capability describes which source languages a provider accepts.
type Capability struct {
	// Sources lists accepted source codes. Empty means any code, including
	// language.Auto.
	Sources []string
	// DefaultSource replaces an unsupported source code.
	DefaultSource string
}

// Resolve returns the source code to send to the provider.
func (c Capability) Resolve(source string) string {
	if len(c.Sources) == 0 || slices.Contains(c.Sources, source) {
		return source
	}
	if c.DefaultSource != "" {
		return c.DefaultSource
	}
	return language.Auto
}

// Attempt records one provider invocation.
type Attempt struct {
	Provider string
	Source   string
	Text     string
	Err      error
}

// Succeeded reports whether the attempt produced usable text.
func (a Attempt) Succeeded() bool {
	return a.Err == nil
}
