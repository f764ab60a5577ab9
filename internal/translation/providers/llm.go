package providers

import (
	"context"

	"vidsub/internal/services/llm"
	"vidsub/internal/translation"
)

// LLM adapts the chat completion client to the Provider interface.
type LLM struct {
	client *llm.Client
}

// NewLLM wraps client.
func NewLLM(client *llm.Client) *LLM {
	return &LLM{client: client}
}

func (l *LLM) Name() string { return "llm" }

func (l *LLM) Capability() translation.Capability { return translation.Capability{} }

func (l *LLM) Translate(ctx context.Context, text, source, target string) (string, error) {
	return l.client.Translate(ctx, text, source, target)
}
